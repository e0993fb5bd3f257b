// Package usecase adapts single repository calls into Flows.
//
// An Interactor binds its parameters on Invoke and does no work until the
// returned Flow is collected:
//
//	getUser := usecase.NewGetUser(users)
//	result := getUser.Invoke("u1").Await(ctx)
//	if result.IsError() {
//		// result.Err() keeps the repository error category
//	}
//
// Interactors never retry. The outcome carries the operation error unchanged.
package usecase
