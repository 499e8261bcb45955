// Package discovery finds LED controllers on the local network.
//
// Controllers answer a UDP broadcast of the ASCII string "HF-A11ASSISTHREAD"
// on port 48899 with a datagram of the form "ip,id,model", for example
// "192.168.1.20,ACCF23AABBCC,AK001-ZJ2145". The id is usually the station MAC
// and the model is the module's advertised firmware string, which maps to
// one or more product names through the model registry.
//
// # Discovery Process
//
//  1. Bind a UDP socket and send the discovery payload to the broadcast address
//  2. Re-send the payload whenever a third of the timeout passes without replies
//  3. Drop our own echo and any reply with fewer than three comma-separated fields
//  4. Deliver each responding address once per scan
//  5. Close the result channel when the timeout elapses, or as soon as a
//     targeted (unicast) address answers
//
// # Usage Example
//
//	scanner := discovery.NewScanner(models.NewRegistry())
//	results, err := scanner.ScanForDevicesWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    fmt.Println(r)
//	}
//
// A scan that hears nothing returns an empty result, not an error. Errors are
// only returned when the socket cannot be set up.
package discovery
