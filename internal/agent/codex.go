package agent

// Codex is the OpenAI Codex CLI.
type Codex struct{}

func (Codex) Name() string { return "codex" }
func (Codex) DisplayName() string { return "Codex (OpenAI)" }
func (Codex) Command() string { return "codex" }
func (Codex) InstallCommand() string { return "npm install -g @openai/codex" }

func (Codex) CheckLocal() bool {
	return commandExists("codex")
}

func (Codex) CheckLoggedIn() bool {
	return homeFileExists(".codex", "config.toml")
}

func (Codex) LoginInstructions() string {
	return "Run 'codex' to authenticate"
}

func (Codex) CredentialsPath() (string, bool) {
	return homeFile(".codex", "config.toml")
}

func (Codex) RemoteCredentialsPath() string {
	return "~/.codex/config.toml"
}

func (Codex) RemoteStateDir() string {
	return "~/.codex"
}
