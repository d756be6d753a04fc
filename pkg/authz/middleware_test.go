package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permkit/pkg/authz"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected"))
	})
}

func doGet(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestGate_Granted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	eval := authz.NewEvaluator(testSource())
	require.NoError(t, eval.Load(ctx, authz.Principal{
		ID:          uuid.New(),
		Permissions: []string{"inventory.read"},
	}))

	rec := doGet(t, authz.Gate(eval, "inventory", "read")(okHandler()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected", rec.Body.String())
}

func TestGate_Denied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	eval := authz.NewEvaluator(testSource())
	require.NoError(t, eval.Load(ctx, authz.Principal{ID: uuid.New()}))

	rec := doGet(t, authz.Gate(eval, "inventory", "read")(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGate_Pending(t *testing.T) {
	t.Parallel()

	// No load yet: the gate renders the placeholder, not a denial.
	eval := authz.NewEvaluator(testSource())

	rec := doGet(t, authz.Gate(eval, "inventory", "read")(okHandler()))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestGate_CustomHandlers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	denied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/upgrade", http.StatusSeeOther)
	})
	pending := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	eval := authz.NewEvaluator(testSource())
	mw := authz.Gate(eval, "inventory", "read",
		authz.WithDeniedHandler(denied),
		authz.WithPendingHandler(pending),
	)

	rec := doGet(t, mw(okHandler()))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.NoError(t, eval.Load(ctx, authz.Principal{ID: uuid.New()}))
	rec = doGet(t, mw(okHandler()))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/upgrade", rec.Header().Get("Location"))
}

func TestGateAnyGateAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	eval := authz.NewEvaluator(testSource())
	require.NoError(t, eval.Load(ctx, authz.Principal{
		ID:          uuid.New(),
		Permissions: []string{"inventory.read"},
	}))

	anyMW := authz.GateAny(eval, []authz.Capability{
		authz.Cap("employees", "read"),
		authz.Cap("inventory", "read"),
	})
	assert.Equal(t, http.StatusOK, doGet(t, anyMW(okHandler())).Code)

	allMW := authz.GateAll(eval, []authz.Capability{
		authz.Cap("employees", "read"),
		authz.Cap("inventory", "read"),
	})
	assert.Equal(t, http.StatusForbidden, doGet(t, allMW(okHandler())).Code)
}

func TestGate_ErrorStateDenies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := &errorSource{cfgErr: errors.New("boom")}
	eval := authz.NewEvaluator(src)
	require.Error(t, eval.Load(ctx, authz.Principal{ID: uuid.New()}))

	// Fail closed: error state renders the denial, not the placeholder.
	rec := doGet(t, authz.Gate(eval, "inventory", "read")(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
