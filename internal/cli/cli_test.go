package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/x/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/mockapi"
	"github.com/tgienger/coreterra/internal/models"
)

type cliEnv struct {
	t       *testing.T
	backend *mockapi.Server
	url     string
}

func setup(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CORETERRA_DATA_DIR", t.TempDir())

	backend, err := mockapi.New(mockapi.DefaultSeed(), mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return &cliEnv{t: t, backend: backend, url: srv.URL}
}

// run executes the CLI against the mock backend with stdin
func (e *cliEnv) runWithInput(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-10-19"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api-url", e.url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) run(args ...string) (string, error) {
	return e.runWithInput("", args...)
}

func (e *cliEnv) login() {
	e.t.Helper()
	_, err := e.run("login", "-u", mockapi.DefaultUsername, "-p", mockapi.DefaultPassword)
	require.NoError(e.t, err)
}

func TestVersion(t *testing.T) {
	e := setup(t)
	out, err := e.run("--version")
	require.NoError(t, err)
	assert.Equal(t, "coreterra v1.2.3 (commit abc123, built 2026-10-19)\n", out)
}

func TestReward(t *testing.T) {
	e := setup(t)

	out, err := e.run("reward", "1h", "hard")
	require.NoError(t, err)
	assert.Contains(t, out, "XP: 200 (50 x 4)")
	assert.Contains(t, out, "Gold: 100")

	out, err = e.run("reward", "2h", "Easy")
	require.NoError(t, err)
	assert.Contains(t, out, "XP: 100")
}

func TestRewardRejectsUnknownValues(t *testing.T) {
	e := setup(t)

	_, err := e.run("reward", "3d", "Easy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown duration")

	_, err = e.run("reward", "15m", "Brutal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Easy, Med, Hard")
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := setup(t)

	out, err := e.run("login", "-u", mockapi.DefaultUsername, "-p", mockapi.DefaultPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Alex Rivera")

	out, err = e.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Alex Rivera")
	assert.Contains(t, out, "Username: demo")
	assert.Contains(t, out, "Level: 5")
	assert.Contains(t, out, "320/500")

	_, err = e.run("logout")
	require.NoError(t, err)

	_, err = e.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestLoginPrompts(t *testing.T) {
	e := setup(t)

	out, err := e.runWithInput("demo\ncoreterra\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Username:")
	assert.Contains(t, out, "Password:")
	assert.Contains(t, out, "Signed in as Alex Rivera")
}

func TestLoginWrongPassword(t *testing.T) {
	e := setup(t)

	_, err := e.run("login", "-u", "demo", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())
}

func TestTasksRequireLogin(t *testing.T) {
	e := setup(t)

	_, err := e.run("tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coreterra login")
}

func TestCaptureThenList(t *testing.T) {
	e := setup(t)
	e.login()

	out, err := e.run("capture", "Buy", "milk", "--priority")
	require.NoError(t, err)
	assert.Contains(t, out, "Captured #")
	assert.Contains(t, out, "Buy milk")

	out, err = e.run("tasks", "--status", "inbox")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Reply to design review thread")
	assert.NotContains(t, out, "Refactor auth module")
}

func TestTasksRejectsUnknownStatus(t *testing.T) {
	e := setup(t)

	_, err := e.run("tasks", "--status", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "someday"`)
}

func TestCompleteLevelsUp(t *testing.T) {
	e := setup(t)
	e.login()

	out, err := e.run("complete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Quest complete!")
	assert.Contains(t, out, "+200 XP")
	assert.Contains(t, out, "Level up! You reached level 6")

	task, ok := e.backend.Task(3)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, task.Status)
}

func TestCompleteRefusesInboxTask(t *testing.T) {
	e := setup(t)
	e.login()

	_, err := e.run("complete", "1")
	require.Error(t, err)

	task, ok := e.backend.Task(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusInbox, task.Status)
}

func TestCompleteValidatesID(t *testing.T) {
	e := setup(t)

	_, err := e.run("complete", "three")
	require.Error(t, err)
	assert.Equal(t, "id must be an integer", err.Error())
}

func TestCalendar(t *testing.T) {
	e := setup(t)
	e.login()

	out, err := e.run("calendar", "--year", "2026", "--month", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "October 2026")
	assert.Contains(t, out, "Su  Mo  Tu  We  Th  Fr  Sa")
	assert.Contains(t, out, "Design sync")
	assert.Contains(t, out, "all day")
	assert.Contains(t, out, "Release cut")
}

func TestCalendarRejectsBadMonth(t *testing.T) {
	e := setup(t)

	_, err := e.run("calendar", "--month", "13")
	require.Error(t, err)
}

func TestConfigShowsOverrides(t *testing.T) {
	e := setup(t)

	out, err := e.run("config")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url:")
	assert.Contains(t, out, e.url)
	assert.Contains(t, out, "log_level: info")
}

func TestConfigRejectsBadURL(t *testing.T) {
	setup(t)
	cmd := NewRootCmd(BuildInfo{Version: "dev"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--api-url", "ftp://example.com", "config"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http:// or https://")
}

func TestCommandsReportUnreachableBackend(t *testing.T) {
	e := setup(t)
	e.login()

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	e.url = down.URL

	_, err := e.run("tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach "+down.URL)
}

// ttyInput looks like a terminal file descriptor to the login prompt
type ttyInput struct {
	*strings.Reader
}

func (ttyInput) Fd() uintptr { return 0 }

func TestLoginReadsPasswordWithoutEcho(t *testing.T) {
	e := setup(t)

	var readFrom []uintptr
	isTerminal = func(uintptr) bool { return true }
	readPassword = func(fd uintptr) ([]byte, error) {
		readFrom = append(readFrom, fd)
		return []byte(mockapi.DefaultPassword), nil
	}
	t.Cleanup(func() {
		isTerminal = term.IsTerminal
		readPassword = term.ReadPassword
	})

	cmd := NewRootCmd(BuildInfo{Version: "dev"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(ttyInput{strings.NewReader(mockapi.DefaultUsername + "\n")})
	cmd.SetArgs([]string{"--api-url", e.url, "login"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []uintptr{0}, readFrom)
	assert.Contains(t, out.String(), "Password:")
	assert.NotContains(t, out.String(), mockapi.DefaultPassword)
	assert.Contains(t, out.String(), "Signed in as Alex Rivera")
}
