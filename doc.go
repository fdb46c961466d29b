// Package rojifi is the data-retrieval layer of the Rojifi admin console.
//
// Every request carries the session's ML-KEM-768 public key, its device id
// and its bearer token. List replies come back as envelopes whose data is
// encrypted to that key; Open verifies the envelope and decrypts it.
//
// Basic usage:
//
//	mgr := rojifi.NewSessionManager(sessionstore.NewFileStore(path))
//	if _, err := mgr.Start(ctx, token); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := rojifi.New(mgr, rojifi.WithUnauthorizedHandler(mgr.Invalidate))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Page through contacts
//	view := rojifi.NewListView[rojifi.Contact](client, rojifi.PathContacts)
//	defer view.Close()
//	if err := view.Refresh(ctx); err != nil {
//	    fmt.Println(rojifi.UserMessage(err))
//	}
//
//	// Approve a request, once at a time per row
//	tracker := rojifi.NewActionTracker()
//	err = tracker.Do(ctx, id, func(ctx context.Context) error {
//	    return client.ApproveAccessRequest(ctx, id)
//	})
package rojifi
