package vendors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/platehub-backend/api/middleware"
	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/internal/menu"
	internalvendors "github.com/angelmondragon/platehub-backend/internal/vendors"
	"github.com/angelmondragon/platehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/platehub-backend/pkg/db/models"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

type harness struct {
	router   http.Handler
	vendorID uuid.UUID
}

func newHarness(t *testing.T) harness {
	t.Helper()
	conn := dbtest.Open(t)
	ctx := context.Background()

	vendorRepo := internalvendors.NewRepository(conn)
	vendor := &models.Vendor{OwnerUserID: uuid.New(), Name: "Taqueria", IsOpen: true}
	require.NoError(t, vendorRepo.Create(ctx, vendor))

	menuRepo := menu.NewRepository(conn)
	require.NoError(t, menuRepo.Create(ctx, &models.MenuItem{VendorID: vendor.ID, Name: "Al pastor", Price: decimal.RequireFromString("3.50"), IsAvailable: true}))
	require.NoError(t, menuRepo.Create(ctx, &models.MenuItem{VendorID: vendor.ID, Name: "Birria", Price: decimal.RequireFromString("4.25"), IsAvailable: false}))

	svc, err := internalvendors.NewService(vendorRepo, ledger.DefaultCommissionRate, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/vendors/{vendorId}", Detail(svc, nil))
	r.Get("/vendors/{vendorId}/menu", Menu(svc, menuRepo, nil))
	r.Put("/vendor/open", SetOpen(svc, nil))
	r.Get("/admin/vendors", AdminList(svc, nil))
	r.Put("/admin/vendors/{vendorId}/commission-rate", AdminSetCommissionRate(svc, nil))
	return harness{router: r, vendorID: vendor.ID}
}

func (h harness) serve(actor *authz.Actor, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func TestMenuListing(t *testing.T) {
	h := newHarness(t)

	resp := h.serve(nil, http.MethodGet, "/vendors/"+h.vendorID.String()+"/menu", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var all []menu.ItemDTO
	decodeData(t, resp, &all)
	require.Len(t, all, 2)
	require.Equal(t, "Al pastor", all[0].Name)
	require.Equal(t, "3.50", all[0].Price)

	resp = h.serve(nil, http.MethodGet, "/vendors/"+h.vendorID.String()+"/menu?available=true", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var available []menu.ItemDTO
	decodeData(t, resp, &available)
	require.Len(t, available, 1)

	resp = h.serve(nil, http.MethodGet, "/vendors/"+uuid.NewString()+"/menu", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetOpenForOwnVendor(t *testing.T) {
	h := newHarness(t)
	owner := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &h.vendorID}

	resp := h.serve(&owner, http.MethodPut, "/vendor/open", `{"is_open":false}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var vendor internalvendors.VendorDTO
	decodeData(t, resp, &vendor)
	require.False(t, vendor.IsOpen)

	resp = h.serve(&owner, http.MethodPut, "/vendor/open", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	customer := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	resp = h.serve(&customer, http.MethodPut, "/vendor/open", `{"is_open":true}`)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminCommissionRate(t *testing.T) {
	h := newHarness(t)
	admin := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}
	path := "/admin/vendors/" + h.vendorID.String() + "/commission-rate"

	resp := h.serve(&admin, http.MethodPut, path, `{"commission_rate":"20"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var vendor internalvendors.VendorDTO
	decodeData(t, resp, &vendor)
	require.Equal(t, "0.2", vendor.EffectiveCommissionRate)

	resp = h.serve(&admin, http.MethodPut, path, `{"commission_rate":"12.345"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var rounded internalvendors.VendorDTO
	decodeData(t, resp, &rounded)
	require.Equal(t, "0.1235", rounded.EffectiveCommissionRate)
	require.NotNil(t, rounded.CommissionRate)
	require.Equal(t, "0.1235", *rounded.CommissionRate)

	resp = h.serve(&admin, http.MethodPut, path, `{"commission_rate":null}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var cleared internalvendors.VendorDTO
	decodeData(t, resp, &cleared)
	require.Nil(t, cleared.CommissionRate)
	require.Equal(t, "0.15", cleared.EffectiveCommissionRate)

	owner := authz.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &h.vendorID}
	resp = h.serve(&owner, http.MethodPut, path, `{"commission_rate":"0"}`)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = h.serve(&admin, http.MethodGet, "/admin/vendors", "")
	require.Equal(t, http.StatusOK, resp.Code)
}
