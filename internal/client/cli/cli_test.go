package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paircraft/paircraft/internal/client/storage"
	"github.com/paircraft/paircraft/pkg/api"
)

// fakeIO собирает вывод и проигрывает заранее заданный ввод
type fakeIO struct {
	mu     sync.Mutex
	output strings.Builder
	inputs []string
}

func (f *fakeIO) Println(a ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output.WriteString(fmt.Sprintln(a...))
}

func (f *fakeIO) Printf(format string, a ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(&f.output, format, a...)
}

func (f *fakeIO) ReadInput(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return "", fmt.Errorf("no more input")
	}
	line := f.inputs[0]
	f.inputs = f.inputs[1:]
	return line, nil
}

func (f *fakeIO) Write(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.output.Write(p)
}

func (f *fakeIO) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.output.String()
}

// memPrefs — in-memory реализация PrefsStorage для тестов
type memPrefs struct {
	mu           sync.Mutex
	username     string
	model        string
	autocomplete *bool
	rooms        []storage.RecentRoom
}

func (m *memPrefs) SaveUsername(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.username = username
	return nil
}

func (m *memPrefs) GetUsername(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.username == "" {
		return "", storage.ErrPrefNotFound
	}
	return m.username, nil
}

func (m *memPrefs) SaveModel(ctx context.Context, model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	return nil
}

func (m *memPrefs) GetModel(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == "" {
		return "", storage.ErrPrefNotFound
	}
	return m.model, nil
}

func (m *memPrefs) SaveAutocomplete(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autocomplete = &enabled
	return nil
}

func (m *memPrefs) GetAutocomplete(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.autocomplete == nil {
		return true, nil
	}
	return *m.autocomplete, nil
}

func (m *memPrefs) SaveRecentRoom(ctx context.Context, room storage.RecentRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append([]storage.RecentRoom{room}, m.rooms...)
	return nil
}

func (m *memPrefs) GetRecentRooms(ctx context.Context, limit int) ([]storage.RecentRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && len(m.rooms) > limit {
		return m.rooms[:limit], nil
	}
	return m.rooms, nil
}

// fakeAPI — управляемая заглушка room service
type fakeAPI struct {
	createResp *api.CreateRoomResponse
	createErr  error
	room       *api.RoomResponse
	roomErr    error
	runResp    *api.RunCodeResponse
	runErr     error
	models     []api.Model
}

func (f *fakeAPI) CreateRoom(ctx context.Context, language string) (*api.CreateRoomResponse, error) {
	return f.createResp, f.createErr
}

func (f *fakeAPI) GetRoom(ctx context.Context, roomID string) (*api.RoomResponse, error) {
	return f.room, f.roomErr
}

func (f *fakeAPI) RunCode(ctx context.Context, roomID string, req api.RunCodeRequest) (*api.RunCodeResponse, error) {
	return f.runResp, f.runErr
}

func (f *fakeAPI) Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error) {
	return &api.CompletionResponse{}, nil
}

func (f *fakeAPI) ListModels(ctx context.Context) (*api.ModelsResponse, error) {
	return &api.ModelsResponse{Models: f.models}, nil
}

func newTestCli(apiClient *fakeAPI, prefs *memPrefs, io *fakeIO) *Cli {
	return New(apiClient, prefs, io, "ws://localhost:8000", nil)
}

func TestRunCreate(t *testing.T) {
	ctx := context.Background()
	apiClient := &fakeAPI{createResp: &api.CreateRoomResponse{RoomID: "room-1"}}
	io := &fakeIO{}
	cli := newTestCli(apiClient, &memPrefs{}, io)

	err := cli.runCreate(ctx, []string{"go"})
	require.NoError(t, err)
	assert.Contains(t, io.String(), "room-1")
	assert.Contains(t, io.String(), "go")
}

func TestRunCreate_UnsupportedLanguage(t *testing.T) {
	ctx := context.Background()
	cli := newTestCli(&fakeAPI{}, &memPrefs{}, &fakeIO{})

	err := cli.runCreate(ctx, []string{"cobol"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestRunName_FromArgs(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{}
	io := &fakeIO{}
	cli := newTestCli(&fakeAPI{}, prefs, io)

	err := cli.runName(ctx, []string{"alice"})
	require.NoError(t, err)

	saved, err := prefs.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", saved)
}

func TestRunName_Interactive(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{}
	io := &fakeIO{inputs: []string{"bob"}}
	cli := newTestCli(&fakeAPI{}, prefs, io)

	err := cli.runName(ctx, nil)
	require.NoError(t, err)

	saved, err := prefs.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", saved)
}

func TestRunName_EmptyFallsBackToAnonymous(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{}
	io := &fakeIO{inputs: []string{""}}
	cli := newTestCli(&fakeAPI{}, prefs, io)

	err := cli.runName(ctx, nil)
	require.NoError(t, err)

	saved, err := prefs.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", saved)
}

func TestRunModels_ListAndSelect(t *testing.T) {
	ctx := context.Background()
	apiClient := &fakeAPI{models: []api.Model{
		{Key: "auto", Name: "Auto (Best Available)"},
		{Key: "deepseek", Name: "DeepSeek V3"},
	}}
	prefs := &memPrefs{}
	io := &fakeIO{}
	cli := newTestCli(apiClient, prefs, io)

	require.NoError(t, cli.runModels(ctx, nil))
	assert.Contains(t, io.String(), "deepseek")

	// Выбор модели сохраняется в настройках
	require.NoError(t, cli.runModels(ctx, []string{"deepseek"}))
	model, err := prefs.GetModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", model)

	// Неизвестный ключ — ошибка
	err = cli.runModels(ctx, []string{"nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
}

func TestRunRun(t *testing.T) {
	ctx := context.Background()
	apiClient := &fakeAPI{
		room:    &api.RoomResponse{ID: "b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5", Code: "print(42)", Language: "python"},
		runResp: &api.RunCodeResponse{Output: "42\n", ExecutionTime: 0.01},
	}
	io := &fakeIO{}
	cli := newTestCli(apiClient, &memPrefs{}, io)

	err := cli.runRun(ctx, []string{"b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5"})
	require.NoError(t, err)
	assert.Contains(t, io.String(), "42")
}

func TestRunRun_InvalidRoomID(t *testing.T) {
	ctx := context.Background()
	cli := newTestCli(&fakeAPI{}, &memPrefs{}, &fakeIO{})

	err := cli.runRun(ctx, []string{"not-a-uuid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid room id")
}

func TestRunStatus(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{username: "alice", model: "deepseek"}
	io := &fakeIO{}
	cli := newTestCli(&fakeAPI{}, prefs, io)

	err := cli.runStatus(ctx)
	require.NoError(t, err)
	out := io.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "deepseek")
	assert.Contains(t, out, "Autocomplete: on")
	assert.Contains(t, out, "No recent rooms")
}

func TestResolveUsername_Saved(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{username: "carol"}
	cli := newTestCli(&fakeAPI{}, prefs, &fakeIO{})

	name, err := cli.resolveUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "carol", name)
}

func TestResolveUsername_Prompted(t *testing.T) {
	ctx := context.Background()
	prefs := &memPrefs{}
	io := &fakeIO{inputs: []string{"dave"}}
	cli := newTestCli(&fakeAPI{}, prefs, io)

	name, err := cli.resolveUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dave", name)

	// Имя сохраняется для следующих заходов
	saved, err := prefs.GetUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dave", saved)
}
