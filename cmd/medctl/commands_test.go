package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"med-reminder/internal/adapters/notifier"
	mem "med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/domain/reminders"
	"med-reminder/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, token string) string {
	t.Helper()

	store := mem.NewMedicationRepo()
	engine := reminders.NewEngine(reminders.Deps{
		Store:    store,
		Notifier: notifier.NewOverlay(),
	}, reminders.EngineConfig{RepeatInterval: time.Hour, RecheckDelay: 5 * time.Millisecond})
	drv := reminders.NewDriver(engine, reminders.DriverConfig{TickInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = drv.Run(ctx) }()

	ts := httptest.NewServer(router.NewRouter(router.Options{Store: store, Driver: drv, APIToken: token}))
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-drv.Done()
	})
	return ts.URL
}

func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--addr", addr, "--token", "tok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMedctl_AddTakeAndList(t *testing.T) {
	addr := newAPI(t, "tok")

	out, err := run(t, addr, "add", "--name", "Losartan", "--dose", "50 mg", "--every", "60")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	// La alarma se levanta por el recheck que agenda el alta.
	require.Eventually(t, func() bool {
		out, err := run(t, addr, "status")
		return err == nil && strings.Contains(out, "Time to take 50 mg of Losartan")
	}, 3*time.Second, 10*time.Millisecond)

	out, err = run(t, addr, "take")
	require.NoError(t, err)
	assert.Contains(t, out, "taken: Losartan (50 mg)")

	_, err = run(t, addr, "take")
	require.Error(t, err)
	assert.Equal(t, "no active alarm", err.Error())

	out, err = run(t, addr, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "1h0m0s")

	out, err = run(t, addr, "schedule")
	require.NoError(t, err)
	assert.Contains(t, out, "Losartan")
	assert.NotContains(t, out, "ringing")

	out, err = run(t, addr, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no active alarm")
}

func TestMedctl_SnoozeAndRemove(t *testing.T) {
	addr := newAPI(t, "tok")

	out, err := run(t, addr, "add", "--name", "Aspirin", "--dose", "1 tablet")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	require.Eventually(t, func() bool {
		out, err := run(t, addr, "status")
		return err == nil && strings.Contains(out, "Aspirin")
	}, 3*time.Second, 10*time.Millisecond)

	out, err = run(t, addr, "snooze", "--minutes", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "postponed until")

	out, err = run(t, addr, "schedule")
	require.NoError(t, err)
	assert.Contains(t, out, "postponed until")

	_, err = run(t, addr, "test", id)
	require.NoError(t, err)

	_, err = run(t, addr, "rm", id)
	require.NoError(t, err)

	_, err = run(t, addr, "rm", id)
	require.Error(t, err)
	assert.Equal(t, "medication not found", err.Error())
}

func TestMedctl_ClearRequiresConfirmation(t *testing.T) {
	addr := newAPI(t, "tok")

	_, err := run(t, addr, "clear")
	require.Error(t, err)

	_, err = run(t, addr, "clear", "--yes")
	require.NoError(t, err)
}

func TestMedctl_WrongToken(t *testing.T) {
	addr := newAPI(t, "other")

	_, err := run(t, addr, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}
