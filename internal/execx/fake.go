package execx

import "context"

// Call records one subprocess invocation made through a Fake.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line returns the call as a single command line, which keeps test
// assertions readable.
func (c Call) Line() string {
	line := c.Name
	for _, a := range c.Args {
		line += " " + a
	}
	return line
}

// Fake implements Runner for tests. Every invocation is recorded; the
// optional hooks decide the response.
type Fake struct {
	Calls []Call

	OutputFn      func(c Call) (string, error)
	RunFn         func(c Call) error
	InteractiveFn func(c Call) error
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	c := Call{Dir: dir, Name: name, Args: args}
	f.Calls = append(f.Calls, c)
	if f.OutputFn != nil {
		return f.OutputFn(c)
	}
	return "", nil
}

func (f *Fake) Run(ctx context.Context, dir, name string, args ...string) error {
	c := Call{Dir: dir, Name: name, Args: args}
	f.Calls = append(f.Calls, c)
	if f.RunFn != nil {
		return f.RunFn(c)
	}
	return nil
}

func (f *Fake) Interactive(ctx context.Context, name string, args ...string) error {
	c := Call{Name: name, Args: args}
	f.Calls = append(f.Calls, c)
	if f.InteractiveFn != nil {
		return f.InteractiveFn(c)
	}
	return nil
}
