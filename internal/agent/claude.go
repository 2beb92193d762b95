package agent

// Claude is the Claude Code CLI.
type Claude struct{}

func (Claude) Name() string { return "claude" }
func (Claude) DisplayName() string { return "Claude Code (Anthropic)" }
func (Claude) Command() string { return "claude" }
func (Claude) InstallCommand() string { return "npm install -g @anthropic-ai/claude-code" }

func (Claude) CheckLocal() bool {
	return commandExists("claude")
}

func (Claude) CheckLoggedIn() bool {
	return homeFileExists(".claude.json")
}

func (Claude) LoginInstructions() string {
	return "Run 'claude' to authenticate"
}

func (Claude) CredentialsPath() (string, bool) {
	return homeFile(".claude.json")
}

func (Claude) RemoteCredentialsPath() string {
	return "~/.claude.json"
}

// The claude CLI keeps its credential file in the home directory but
// still wants ~/.claude present before first run.
func (Claude) RemoteStateDir() string {
	return "~/.claude"
}
