// Package mocks provides gomock implementations of the credential store for tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), session.KindAccess).Return("", session.ErrStoreUnavailable)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/MrEthical07/goSession/session Store
