package docfs

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"9fans.net/go/plan9/client"
	"github.com/fhs/mux9p"
)

// Post makes the server at the other end of conn available to clients
// as the service name in the current name space.
func Post(conn net.Conn, name string) error {
	if name == "" {
		conn.Close()
		return fmt.Errorf("nothing to do")
	}
	ns := client.Namespace()
	if err := os.MkdirAll(ns, 0700); err != nil {
		return err
	}
	addr := filepath.Join(ns, name)
	go func() {
		if err := mux9p.Listen("unix", addr, conn, nil); err != nil {
			log.Printf("docfs: 9P multiplexer failed: %v", err)
		}
	}()
	return nil
}
