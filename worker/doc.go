// Package worker runs document checks on a bounded pool of goroutines.
//
// A Checker validates one encoded document. A Pool feeds Jobs to a fixed
// number of workers and streams JobResults; RunBatch checks a slice of
// documents and returns the results in input order.
//
// Example usage:
//
//	pool := worker.NewPool(ctx, checker, 4)
//
//	go func() {
//	    for i, doc := range docs {
//	        pool.Submit(worker.Job{ID: names[i], Index: i, Document: doc})
//	    }
//	    pool.Close()
//	}()
//
//	for r := range pool.Results() {
//	    if r.Error != nil {
//	        // the document could not be decoded or checked
//	    }
//	    // r.Result.Valid, r.Result.Diagnostics
//	}
package worker
