// Package discovery runs the two sides of the UDP discovery protocol.
//
// A Client sends one empty request to the broadcast address and to the
// multicast group 233.89.188.1, both on port 10001, then collects replies
// until its timeout elapses. A Responder answers every version 1, opcode 0
// request with a reply built from the local host facts.
//
// # Discovery Process
//
// The client session works as follows:
//  1. Sends the encoded request to every destination
//  2. Reads datagrams until the absolute deadline
//  3. Discards malformed datagrams (logged) and non-responses
//  4. Keeps the first reply per identifier, in arrival order
//
// # Usage Example
//
//	conn, err := discovery.Listen(ctx, discovery.SocketConfig{})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	client := discovery.NewClient(conn)
//	client.Timeout = 5 * time.Second
//	packets, err := client.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, d := range discovery.NewDevices(packets) {
//	    fmt.Println(d)
//	}
//
// # Network Requirements
//
//   - UDP port 10001 must be free; client and responder both bind it
//   - Replies are unicast back to the sender's address and port
//   - Devices must be on the same broadcast domain or reachable via multicast
//
// # Thread Safety
//
// A session owns its socket while Scan or Serve runs. Run one session per
// socket at a time.
package discovery
