// Package csmtest provides an in-process fake of the CSM REST API for tests.
//
// The server verifies IM signatures with imsig.Middleware, so requests that
// are not signed with its credentials get 401 Unauthorized:
//
//	srv := csmtest.NewServer(csmtest.WithContacts(csmtest.Contact{
//	    Msisdn:     "50212345678",
//	    Tags:       []string{"vip"},
//	    Status:     "ACTIVE",
//	    ProfileUID: "p-1",
//	}))
//	defer srv.Close()
//
//	client, err := csm.New(srv.Credentials())
package csmtest
