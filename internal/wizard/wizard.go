package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/inside-track/post-deploy-scripts/internal/config"
)

// New creates a new wizard model
func New() WizardModel {
	return WizardModel{
		state:        StateWelcome,
		environments: []EnvironmentInput{},
		scriptsDir:   "scripts",
		errors:       make(map[string]string),
		inputs:       []textinput.Model{},
		dbTypeIndex:  0,
	}
}

// Init initializes the wizard (Bubble Tea Init)
func (m WizardModel) Init() tea.Cmd {
	return checkForExistingConfig
}

// Update handles state transitions (Bubble Tea Update)
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up", "k":
			return m.handleUp()

		case "down", "j":
			return m.handleDown()

		case "tab":
			return m.handleTab()

		default:
			return m.handleTextInput(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectionTestResultMsg:
		m.testingConnection = false
		if msg.err != nil {
			m.connectionError = msg.err
			m.connectionTestResult = "failed"
		} else {
			m.connectionTestResult = "success"
			m.connectionError = nil
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, nil

	case existingConfigMsg:
		if msg.path != "" {
			m.existingConfigPath = msg.path
			m.existingEnvNames = msg.envNames
			m.state = StateCheckExisting
		} else {
			m.state = StateWelcome
		}
		return m, nil
	}

	return m, nil
}

// View renders the wizard UI (Bubble Tea View)
func (m WizardModel) View() string {
	switch m.state {
	case StateWelcome:
		return m.renderWelcome()
	case StateCheckExisting:
		return m.renderCheckExisting()
	case StateDatabaseType:
		return m.renderDatabaseType()
	case StateConnectionDetails:
		return m.renderConnectionDetails()
	case StateTestConnection:
		return m.renderTestConnection()
	case StateAddAnother:
		return m.renderAddAnother()
	case StateScriptsDir:
		return m.renderScriptsDir()
	case StateSummary:
		return m.renderSummary()
	case StateCreating:
		return m.renderCreating()
	case StateDone:
		return m.renderDone()
	case StateError:
		return m.renderError()
	default:
		return "Unknown state"
	}
}

// State transition handlers

func (m WizardModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome, StateCheckExisting:
		m.state = StateDatabaseType
		return m, nil

	case StateDatabaseType:
		dbType := DatabaseTypes[m.dbTypeIndex]
		m.currentEnv.DatabaseType = dbType.ID
		m.state = StateConnectionDetails
		m.initializeInputs()
		return m, nil

	case StateConnectionDetails:
		if err := m.collectInputValues(); err != nil {
			return m, nil
		}
		m.state = StateTestConnection
		m.testingConnection = true
		return m, m.testConnection()

	case StateTestConnection:
		switch m.connectionTestResult {
		case "success":
			m.environments = append(m.environments, m.currentEnv)
			m.currentEnv = EnvironmentInput{}
			m.connectionTestResult = ""
			m.addAnotherChoice = 0
			m.state = StateAddAnother
			return m, nil
		case "failed":
			switch m.retryChoice {
			case 0: // Retry
				m.connectionTestResult = ""
				m.connectionError = nil
				m.testingConnection = true
				return m, m.testConnection()
			case 1: // Edit
				m.state = StateConnectionDetails
				m.connectionTestResult = ""
				m.connectionError = nil
				m.retryChoice = 0
				return m, nil
			case 2: // Quit
				return m, tea.Quit
			}
		}
		return m, nil

	case StateAddAnother:
		if m.addAnotherChoice == 0 {
			m.state = StateDatabaseType
			return m, nil
		}
		m.state = StateScriptsDir
		m.inputs = []textinput.Model{m.makeInput("Scripts directory", m.scriptsDir, false)}
		m.focusIndex = 0
		m.inputs[0].Focus()
		return m, nil

	case StateScriptsDir:
		if len(m.inputs) > 0 && m.inputs[0].Value() != "" {
			m.scriptsDir = m.inputs[0].Value()
		}
		m.state = StateSummary
		return m, nil

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m WizardModel) handleUp() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex > 0 {
			m.dbTypeIndex--
		}
	case StateConnectionDetails:
		if m.focusIndex > 0 {
			m.focusIndex--
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice > 0 {
			m.retryChoice--
		}
	case StateAddAnother:
		if m.addAnotherChoice > 0 {
			m.addAnotherChoice--
		}
	}
	return m, nil
}

func (m WizardModel) handleDown() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateDatabaseType:
		if m.dbTypeIndex < len(DatabaseTypes)-1 {
			m.dbTypeIndex++
		}
	case StateConnectionDetails:
		if m.focusIndex < len(m.inputs)-1 {
			m.focusIndex++
			m.updateInputFocus()
		}
	case StateTestConnection:
		if m.connectionTestResult == "failed" && m.retryChoice < 2 {
			m.retryChoice++
		}
	case StateAddAnother:
		if m.addAnotherChoice < 1 {
			m.addAnotherChoice++
		}
	}
	return m, nil
}

func (m WizardModel) handleTab() (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails {
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.updateInputFocus()
	}
	return m, nil
}

func (m WizardModel) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if (m.state == StateConnectionDetails || m.state == StateScriptsDir) && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Input management

func (m *WizardModel) initializeInputs() {
	m.inputs = []textinput.Model{}
	m.focusIndex = 0

	switch m.currentEnv.DatabaseType {
	case "postgres":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "dev", false),
			m.makeInput("Host", "localhost", false),
			m.makeInput("Port", "5432", false),
			m.makeInput("Database", "", false),
			m.makeInput("User", "", false),
			m.makeInput("Password", "", true),
		)
	case "sqlite":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "dev", false),
			m.makeInput("Database file path", "postdeploy.db", false),
		)
	case "libsql":
		m.inputs = append(m.inputs,
			m.makeInput("Environment name", "production", false),
			m.makeInput("Database URL", "libsql://[name]-[org].turso.io", false),
			m.makeInput("Auth token", "", true),
		)
	}

	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *WizardModel) makeInput(placeholder, value string, isPassword bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.SetValue(value)
	if isPassword {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
	}
	return input
}

func (m *WizardModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *WizardModel) collectInputValues() error {
	switch m.currentEnv.DatabaseType {
	case "postgres":
		if len(m.inputs) < 6 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = m.inputs[0].Value()
		m.currentEnv.Host = m.inputs[1].Value()
		m.currentEnv.Port = m.inputs[2].Value()
		m.currentEnv.Database = m.inputs[3].Value()
		m.currentEnv.User = m.inputs[4].Value()
		m.currentEnv.Password = m.inputs[5].Value()

		if err := ValidateEnvironmentName(m.currentEnv.Name); err != nil {
			m.errors["name"] = err.Error()
			return err
		}
		if err := ValidatePort(m.currentEnv.Port); err != nil {
			m.errors["port"] = err.Error()
			return err
		}

	case "sqlite":
		if len(m.inputs) < 2 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = m.inputs[0].Value()
		m.currentEnv.FilePath = m.inputs[1].Value()

		if err := ValidateEnvironmentName(m.currentEnv.Name); err != nil {
			m.errors["name"] = err.Error()
			return err
		}

	case "libsql":
		if len(m.inputs) < 3 {
			return fmt.Errorf("not enough inputs")
		}
		m.currentEnv.Name = m.inputs[0].Value()
		m.currentEnv.URL = m.inputs[1].Value()
		m.currentEnv.AuthToken = m.inputs[2].Value()

		if err := ValidateEnvironmentName(m.currentEnv.Name); err != nil {
			m.errors["name"] = err.Error()
			return err
		}
	}

	return nil
}

// Message types for async operations

type connectionTestResultMsg struct {
	err error
}

func (m WizardModel) testConnection() tea.Cmd {
	env := m.currentEnv
	return func() tea.Msg {
		err := TestConnection(ConnectionString(env))
		return connectionTestResultMsg{err: err}
	}
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) createFiles() tea.Cmd {
	envs := m.environments
	scriptsDir := m.scriptsDir
	return func() tea.Msg {
		result, err := GenerateFiles(envs, scriptsDir)
		return fileCreationResultMsg{result: result, err: err}
	}
}

type existingConfigMsg struct {
	path     string
	envNames []string
}

func checkForExistingConfig() tea.Msg {
	envNames, err := getEnvironmentNames(config.ConfigFileName)
	if err == nil && len(envNames) > 0 {
		return existingConfigMsg{path: config.ConfigFileName, envNames: envNames}
	}
	return existingConfigMsg{}
}

func getEnvironmentNames(configPath string) ([]string, error) {
	// Simple scan for [environments.NAME] sections
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var envNames []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[environments.") && strings.HasSuffix(line, "]") {
			envName := strings.TrimPrefix(line, "[environments.")
			envName = strings.TrimSuffix(envName, "]")
			envNames = append(envNames, envName)
		}
	}

	return envNames, nil
}

// View renderers

func (m WizardModel) renderWelcome() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString("Welcome! Let's set up post-deploy scripts for your project.\n\n")
	b.WriteString(renderInfo("This wizard will help you:\n" +
		"  • Configure database connections\n" +
		"  • Create environment-specific config files\n" +
		"  • Set up your scripts directory"))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to continue, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderCheckExisting() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSuccess("Found existing configuration!"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Config: %s\n", m.existingConfigPath))
	b.WriteString(fmt.Sprintf("Environments: %s\n", strings.Join(m.existingEnvNames, ", ")))
	b.WriteString("\n")
	b.WriteString(renderInfo("New environments will be merged into the existing file."))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to continue, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderDatabaseType() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Database Type"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("What database are you using?"))
	b.WriteString("\n\n")

	for i, dbType := range DatabaseTypes {
		line := fmt.Sprintf("%d. %s (%s)", i+1, dbType.DisplayName, dbType.Description)
		b.WriteString(renderOption(i == m.dbTypeIndex, line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderConnectionDetails() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Connection Details"))
	b.WriteString("\n\n")

	dbType := DatabaseTypes[m.dbTypeIndex]
	b.WriteString(fmt.Sprintf("Database: %s\n\n", dbType.DisplayName))

	for i, input := range m.inputs {
		label := input.Placeholder
		if i == m.focusIndex {
			b.WriteString(selectedStyle.Render("► " + label + ":"))
		} else {
			b.WriteString(labelStyle.Render("  " + label + ":"))
		}
		b.WriteString("\n  ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		for _, errMsg := range m.errors {
			b.WriteString(renderError(errMsg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(renderStatusBar("↑/↓ or Tab: navigate  Enter: test connection  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderTestConnection() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Testing Connection"))
	b.WriteString("\n\n")

	if m.testingConnection {
		b.WriteString(infoStyle.Render(iconSpinner + " Testing connection..."))
	} else if m.connectionTestResult == "success" {
		b.WriteString(renderSuccess("Connection successful!"))
	} else if m.connectionTestResult == "failed" {
		b.WriteString(renderError("Connection failed"))
		b.WriteString("\n\n")
		if m.connectionError != nil {
			b.WriteString(errorStyle.Render("Error: " + m.connectionError.Error()))
		}
		b.WriteString("\n\n")
		b.WriteString("What would you like to do?\n\n")
		b.WriteString(renderOption(m.retryChoice == 0, "Retry connection"))
		b.WriteString("\n")
		b.WriteString(renderOption(m.retryChoice == 1, "Edit connection details"))
		b.WriteString("\n")
		b.WriteString(renderOption(m.retryChoice == 2, "Quit wizard"))
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	if m.connectionTestResult == "failed" {
		b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))
	} else {
		b.WriteString(renderStatusBar("Press Enter to continue"))
	}

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderAddAnother() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Add Another Environment?"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s Added environment: %s\n\n", iconSuccess, m.environments[len(m.environments)-1].Name))
	b.WriteString(renderOption(m.addAnotherChoice == 0, "Add another environment (e.g., staging, production)"))
	b.WriteString("\n")
	b.WriteString(renderOption(m.addAnotherChoice == 1, "Continue"))
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("↑/↓: navigate  Enter: select  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderScriptsDir() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Scripts Directory"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Where should script files live?"))
	b.WriteString("\n\n  ")
	if len(m.inputs) > 0 {
		b.WriteString(m.inputs[0].View())
	}
	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Enter: continue  q: quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderSummary() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSectionHeader("Summary"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Ready to create configuration for %d environment(s):\n\n", len(m.environments)))

	for _, env := range m.environments {
		b.WriteString(fmt.Sprintf("  • %s (%s)\n", env.Name, env.DatabaseType))
	}

	b.WriteString("\n")
	b.WriteString("This will create:\n")
	b.WriteString("  • " + config.ConfigFileName + "\n")
	for _, env := range m.environments {
		b.WriteString(fmt.Sprintf("  • .env.%s\n", env.Name))
	}
	b.WriteString("  • " + m.scriptsDir + "/\n")
	b.WriteString("  • Update .gitignore\n")

	b.WriteString("\n")
	b.WriteString(renderStatusBar("Press Enter to create files, q to quit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderCreating() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(iconSpinner + " Creating project files..."))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderDone() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderSuccess("Setup complete!"))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString("Created:\n")
		if m.result.ConfigCreated {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconSuccess, m.result.ConfigPath))
		}
		for _, envFile := range m.result.EnvFiles {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconSuccess, envFile))
		}
		if m.result.ScriptsDirCreated {
			b.WriteString(fmt.Sprintf("  %s %s/\n", iconSuccess, m.result.ScriptsDir))
		}
		if m.result.GitignoreUpdated {
			b.WriteString(fmt.Sprintf("  %s .gitignore updated\n", iconSuccess))
		}
	}

	b.WriteString("\n")
	b.WriteString("Next steps:\n")
	b.WriteString("  1. Run: postdeploy new <name> to create your first script\n")
	b.WriteString("  2. Fill in the up and down sections\n")
	b.WriteString("  3. Run: postdeploy up\n")

	b.WriteString("\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

func (m WizardModel) renderError() string {
	var b strings.Builder

	b.WriteString(renderHeader("Post-Deploy Scripts Init"))
	b.WriteString("\n\n")
	b.WriteString(renderError("An error occurred"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(renderStatusBar("Press Enter to exit"))

	return borderStyle.Render(b.String())
}

// Run starts the wizard
func Run() error {
	p := tea.NewProgram(New())
	_, err := p.Run()
	return err
}
