// Package collector receives diagnostic entries shipped by running forms.
//
// Forms configured with a remote_url send every recorded entry over a
// websocket to the collector's /logs endpoint. The collector appends each
// entry to capture-YYYYMMDD.jsonl in its capture directory, which the
// `medentry logs` command can read back.
//
// # Usage Example
//
//	srv, err := collector.New(&collector.Config{Addr: ":9300", Dir: "./captures"})
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	return srv.Start(ctx)
package collector
