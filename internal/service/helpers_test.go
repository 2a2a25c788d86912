package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// fixture is a server with one store, its manager and a staff member.
type fixture struct {
	srv     *server.Server
	repos   *repository.Repositories
	seed    *testutil.Seeder
	store   *model.Store
	admin   *model.User
	manager *model.User
	staff   *model.User
	tg      *telegramRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tg := newTelegramRecorder(t)
	srv := testutil.NewServer(t, func(cfg *config.Config) {
		cfg.Integration.TelegramBotToken = "token"
		cfg.Integration.TelegramChatID = "42"
		cfg.Integration.TelegramAPIURL = tg.URL
	})

	seed := testutil.NewSeeder(t, srv)
	store := seed.Store("Kemang", -6.2607, 106.8137, "100")

	return &fixture{
		srv:     srv,
		repos:   repository.NewRepositories(srv),
		seed:    seed,
		store:   store,
		admin:   seed.User(nil, "admin", model.RoleAdmin, ""),
		manager: seed.User(&store.ID, "manager", model.RoleManager, "manager@example.com"),
		staff:   seed.User(&store.ID, "staff", model.RoleStaff, ""),
		tg:      tg,
	}
}

// clock returns a now func fixed at t.
func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// telegramRecorder fakes the Bot API sendMessage endpoint.
type telegramRecorder struct {
	*httptest.Server

	mu       sync.Mutex
	messages []string
}

func newTelegramRecorder(t *testing.T) *telegramRecorder {
	rec := &telegramRecorder{}
	rec.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ChatID string `json:"chat_id"`
			Text   string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.messages = append(rec.messages, body.Text)
		rec.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(rec.Close)
	return rec
}

func (r *telegramRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errs.HasCode(err, code), "expected code %s, got %v", code, err)
}

func jobCount(f *fixture, task, result string) float64 {
	return promtest.ToFloat64(f.srv.Metrics.JobsProcessed.WithLabelValues(task, result))
}
