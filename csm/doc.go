// Package csm is a client for the Interactúa Móvil CSM REST API.
//
// A Client owns a copy of the credentials, signs every request with the
// imsig scheme and sends it to <base-url>/api/rest/<endpoint>:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := csm.New(cfg.Credentials)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	contacts, err := client.ListContacts(ctx, csm.ListContactsParams{
//	    Status: []csm.ContactStatus{csm.ContactActive},
//	    Limit:  csm.Ptr(10),
//	})
//
// # Operations
//
//   - ListContacts: GET contacts
//   - GetContact: GET contacts/{msisdn}
//   - ListMessages: GET messages
//   - SendToContact: POST messages/send_to_contact
//   - SendToTags: POST messages/send
//   - GetStatus: GET status
//
// Other endpoints can be reached with Send.
//
// # Errors
//
// Every error matches one kind sentinel with errors.Is:
//
//	ErrConfiguration  New was given incomplete credentials
//	ErrValidation     the request was rejected before signing
//	ErrSigning        authentication headers could not be computed
//	ErrHTTPStatus     the API answered with a non-2xx status
//	ErrTransport      no response was received
//	ErrResponseShape  a 2xx body did not match the expected record
//
// HTTP status errors additionally match ErrUnauthorized, ErrNotFound and
// ErrRateLimited. Requests are never retried.
//
// # Logging
//
// Pass a logrus logger with WithLogger. Each call logs its steps at info,
// the status and duration at debug and the canonical signing string at
// trace. All lines of a call share a request_id field.
package csm
