package service

import (
	"net/http"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
)

var (
	errOtherStore = errs.NewForbiddenError("You can only access your own store", true)
	errNoStore    = errs.New(http.StatusBadRequest, "NO_STORE", "Your account is not assigned to a store")
	errStoreParam = errs.New(http.StatusBadRequest, "STORE_REQUIRED", "store_id is required")
)

// actingStore resolves the single store an action applies to. Admins must
// name it unless they belong to one; everyone else acts on their own store and
// may only name it explicitly.
func actingStore(p *model.Principal, requested *int64) (int64, error) {
	if requested != nil {
		if !p.CanAccessStore(*requested) {
			return 0, errOtherStore
		}
		return *requested, nil
	}
	if p.StoreID == nil {
		if p.IsAdmin() {
			return 0, errStoreParam
		}
		return 0, errNoStore
	}
	return *p.StoreID, nil
}

// listingStore resolves the store filter of a listing. Admins may list across
// every store (nil); everyone else is pinned to their own.
func listingStore(p *model.Principal, requested *int64) (*int64, error) {
	if p.IsAdmin() {
		return requested, nil
	}
	if p.StoreID == nil {
		return nil, errNoStore
	}
	if requested != nil && *requested != *p.StoreID {
		return nil, errOtherStore
	}
	id := *p.StoreID
	return &id, nil
}

// checkStore rejects access to a record of another store.
func checkStore(p *model.Principal, storeID int64) error {
	if !p.CanAccessStore(storeID) {
		return errOtherStore
	}
	return nil
}
