package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/jwtutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
)

var jwtCfg = &jwtutil.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1}

func newContext(header http.Header) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/things", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func bearer(t *testing.T, userID, email, tenantID, role string) http.Header {
	t.Helper()
	token, err := jwtutil.NewJWTUtil(jwtCfg).GenerateToken(userID, email, tenantID, role)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestRequestIDMiddleware(t *testing.T) {
	c, rec := newContext(http.Header{logger.RequestIDKey: {"abc"}})
	require.NoError(t, RequestIDMiddleware(ok)(c))
	assert.Equal(t, "abc", rec.Header().Get(logger.RequestIDKey))

	c, rec = newContext(nil)
	require.NoError(t, RequestIDMiddleware(ok)(c))
	assert.Len(t, rec.Header().Get(logger.RequestIDKey), 36)
	assert.Equal(t, rec.Header().Get(logger.RequestIDKey), c.Get(logger.RequestIDKey))
}

func TestAuthMiddleware(t *testing.T) {
	mw := AuthMiddleware(jwtutil.NewJWTUtil(jwtCfg))

	c, _ := newContext(nil)
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw(ok)(c)))

	c, _ = newContext(http.Header{"Authorization": {"Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw(ok)(c)))

	c, _ = newContext(http.Header{"Authorization": {"Bearer not.a.jwt"}})
	assert.Equal(t, http.StatusUnauthorized, httpCode(t, mw(ok)(c)))

	c, rec := newContext(bearer(t, "user-1", "Owner@Station.in", "", ""))
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", c.Get(UserIDKey))
	assert.Equal(t, "owner@station.in", c.Get(EmailKey))
	require.NotNil(t, Claims(c))
}

func TestRequireRole(t *testing.T) {
	chain := AuthMiddleware(jwtutil.NewJWTUtil(jwtCfg))(RequireRole(jwtutil.RoleDeveloper)(ok))

	c, _ := newContext(bearer(t, "user-1", "u@x.in", "", ""))
	assert.Equal(t, http.StatusForbidden, httpCode(t, chain(c)))

	c, rec := newContext(bearer(t, "dev", "dev@x.in", "", jwtutil.RoleDeveloper))
	require.NoError(t, chain(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type fakeResolver struct {
	byID    []string
	byEmail []string
	err     error
}

func (f *fakeResolver) ByTenantID(_ context.Context, id string) (*tenancy.Resolution, error) {
	f.byID = append(f.byID, id)
	if f.err != nil {
		return nil, f.err
	}
	return &tenancy.Resolution{Tenant: &model.Tenant{ID: id}}, nil
}

func (f *fakeResolver) ByUserEmail(_ context.Context, email string) (*tenancy.Resolution, error) {
	f.byEmail = append(f.byEmail, email)
	if f.err != nil {
		return nil, f.err
	}
	return &tenancy.Resolution{Tenant: &model.Tenant{ID: "from-email"}}, nil
}

func TestTenantContext(t *testing.T) {
	tokens := jwtutil.NewJWTUtil(jwtCfg)

	run := func(r *fakeResolver, h http.Header) (echo.Context, error) {
		c, _ := newContext(h)
		return c, AuthMiddleware(tokens)(TenantContext(r)(ok))(c)
	}

	t.Run("tenant claim", func(t *testing.T) {
		r := &fakeResolver{}
		c, err := run(r, bearer(t, "u", "u@x.in", "t-1", ""))
		require.NoError(t, err)
		assert.Equal(t, []string{"t-1"}, r.byID)
		assert.Equal(t, "t-1", Tenant(c).ID)
	})

	t.Run("email lookup", func(t *testing.T) {
		r := &fakeResolver{}
		c, err := run(r, bearer(t, "u", "u@x.in", "", ""))
		require.NoError(t, err)
		assert.Equal(t, []string{"u@x.in"}, r.byEmail)
		assert.Equal(t, "from-email", Tenant(c).ID)
	})

	t.Run("header ignored for regular users", func(t *testing.T) {
		r := &fakeResolver{}
		h := bearer(t, "u", "u@x.in", "t-1", "")
		h.Set(TenantHeader, "t-other")
		_, err := run(r, h)
		require.NoError(t, err)
		assert.Equal(t, []string{"t-1"}, r.byID)
	})

	t.Run("header honored for developers", func(t *testing.T) {
		r := &fakeResolver{}
		h := bearer(t, "dev", "dev@x.in", "", jwtutil.RoleDeveloper)
		h.Set(TenantHeader, "t-other")
		_, err := run(r, h)
		require.NoError(t, err)
		assert.Equal(t, []string{"t-other"}, r.byID)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := run(&fakeResolver{err: tenancy.ErrTenantNotFound}, bearer(t, "u", "u@x.in", "t-1", ""))
		assert.Equal(t, http.StatusNotFound, httpCode(t, err))

		_, err = run(&fakeResolver{err: tenancy.ErrTenantInactive}, bearer(t, "u", "u@x.in", "t-1", ""))
		assert.Equal(t, http.StatusForbidden, httpCode(t, err))
	})
}
