package agent

// Auggie is the Augment Code CLI.
type Auggie struct{}

func (Auggie) Name() string { return "auggie" }
func (Auggie) DisplayName() string { return "Auggie (Augment Code)" }
func (Auggie) Command() string { return "auggie" }
func (Auggie) InstallCommand() string { return "npm install -g @augmentcode/auggie" }

func (Auggie) CheckLocal() bool {
	return commandExists("auggie")
}

func (Auggie) CheckLoggedIn() bool {
	return homeFileExists(".augment", "session.json")
}

func (Auggie) LoginInstructions() string {
	return "Run 'auggie login' to authenticate"
}

func (Auggie) CredentialsPath() (string, bool) {
	return homeFile(".augment", "session.json")
}

func (Auggie) RemoteCredentialsPath() string {
	return "~/.augment/session.json"
}

func (Auggie) RemoteStateDir() string {
	return "~/.augment"
}
