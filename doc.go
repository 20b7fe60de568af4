// Package clamd provides a Go client for the ClamAV daemon (clamd) network
// protocol over TCP or TLS.
//
// Streams are sent with the INSTREAM command, framed into length-prefixed
// chunks without buffering the whole input. Each call opens its own
// connection and returns exactly one verdict: clean, infected with a
// signature name, or an *Error.
//
// # Quick Start
//
//	client, err := clamd.NewClient(clamd.WithHost("localhost"), clamd.WithPort(3310))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.ScanFile(ctx, "/path/to/file.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Status: %s, Infected: %v\n", result.Status, result.IsInfected())
//
// Directory trees are scanned with ScanPath, which reports one result per
// regular file through a channel that is closed when the walk is done.
package clamd
