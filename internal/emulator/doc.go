// Package emulator implements a software LED controller.
//
// A Controller holds the state, timer table and clock of one device and
// applies commands the way firmware does: levels writes respect the write
// mode byte, presets and custom patterns update the pattern and delay bytes,
// and queries produce byte-exact replies. A Server exposes a Controller on
// TCP port 5577 and can answer UDP discovery broadcasts, so the real client
// stack can be exercised end to end without hardware.
//
// # Fault Injection
//
// DropNext makes the server hang up on the next n requests and CorruptNext
// makes the next n replies carry a bad checksum. Both are used to test
// retry behaviour.
//
// # Usage Example
//
//	reg := models.NewRegistry()
//	desc, _ := reg.LookupKnown(0x44)
//	srv := emulator.New(emulator.NewController(desc), nil)
//	if err := srv.Listen("127.0.0.1:5577"); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Shutdown(context.Background())
package emulator
