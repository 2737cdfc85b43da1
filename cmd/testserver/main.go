// Command testserver runs the HTTP/WebSocket target server for local load
// runs.
//
// Usage:
//
//	testserver [-port 8080] [-host localhost]
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"stampede/testserver"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	flag.Parse()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	fmt.Println("Stampede Test Server")
	fmt.Println("====================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health         - Health check")
	fmt.Println("  GET  /status/{code}  - Return specific status code")
	fmt.Println("  GET  /delay/{ms}     - Delay response by milliseconds")
	fmt.Println("  ANY  /echo           - Echo request body")
	fmt.Println("  GET  /json           - JSON response with request id")
	fmt.Println("  POST /auth/login     - Returns an auth token")
	fmt.Println("  GET  /users/{id}     - User data, wants Authorization")
	fmt.Println("  GET  /ws             - WebSocket echo")

	if err := http.ListenAndServe(addr, testserver.NewServer().Handler()); err != nil {
		log.Fatal(err)
	}
}
