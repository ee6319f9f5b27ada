// Package mocks provides shared test doubles for interfaces that cross
// package boundaries.
//
// Two styles are used. Function-field mocks (MockJWTService) suit tests that
// only need to stub a return value:
//
//	jwt := &mocks.MockJWTService{Claims: &auth.Claims{UserID: id}}
//
// testify mocks (TestifyMockTaskSource, TestifyMockNotifier) suit tests
// that assert on calls and their order:
//
//	src := new(mocks.TestifyMockTaskSource)
//	src.On("DueForNotification", mock.Anything, now, lead).Return(tasks, nil)
//	...
//	src.AssertExpectations(t)
package mocks
