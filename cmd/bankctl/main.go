// Command bankctl is the reference client: it keeps signing keys on disk,
// registers accounts, signs transfers and queries the server.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novabank/ledger_service/internal/keystore"
	"github.com/novabank/ledger_service/internal/protocol"
	"github.com/novabank/ledger_service/internal/signing"
)

const usage = `Usage: bankctl [flags] <command> [args]

Commands:
  register <name>                 generate keys (first use) and register the account
  login <name>                    confirm an existing account
  balance <name>                  show an account balance
  users                           list registered accounts
  send <sender> <receiver> <amt>  sign and submit a transfer
  history                         list all processed transactions

Flags:
`

func main() {
	addr := flag.String("addr", "localhost:42000", "ledger server address")
	keyDir := flag.String("keys", "keys", "directory holding signing keys")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := dial(*addr)
	if err != nil {
		fatalf("connect to %s: %v", *addr, err)
	}
	defer c.close()

	ks := keystore.New(*keyDir)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "register":
		requireArgs(rest, 1)
		register(c, ks, rest[0])
	case "login":
		requireArgs(rest, 1)
		run(c, protocol.Request{Action: string(protocol.ActionLogin), Name: rest[0]})
	case "balance":
		requireArgs(rest, 1)
		run(c, protocol.Request{Action: string(protocol.ActionGetBalance), Name: rest[0]})
	case "users":
		run(c, protocol.Request{Action: string(protocol.ActionGetUsers)})
	case "send":
		requireArgs(rest, 3)
		send(c, ks, rest[0], rest[1], rest[2])
	case "history":
		run(c, protocol.Request{Action: string(protocol.ActionGetTransactions)})
	default:
		fatalf("unknown command %q", cmd)
	}
}

func register(c *client, ks *keystore.Keystore, name string) {
	_, created, err := ks.LoadOrGenerate(name)
	if err != nil {
		fatalf("key custody for %s: %v", name, err)
	}
	if created {
		fmt.Printf("generated new key pair for %s\n", name)
	}
	keyPEM, err := ks.VerificationKeyPEM(name)
	if err != nil {
		fatalf("load verification key: %v", err)
	}
	run(c, protocol.Request{
		Action:          string(protocol.ActionRegister),
		Name:            name,
		VerificationKey: base64.StdEncoding.EncodeToString(keyPEM),
	})
}

func send(c *client, ks *keystore.Keystore, sender, receiver, rawAmount string) {
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		fatalf("amount %q is not a valid decimal", rawAmount)
	}
	key, err := ks.Load(sender)
	if err != nil {
		fatalf("load signing key for %s: %v", sender, err)
	}

	issuedAt := time.Now().UTC().Format(time.RFC3339)
	message := signing.EncodeTransaction(sender, receiver, amount, issuedAt)
	sig, err := signing.Sign(key, message)
	if err != nil {
		fatalf("sign transaction: %v", err)
	}

	run(c, protocol.Request{
		Action:    string(protocol.ActionMakeTransaction),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount.String(),
		IssuedAt:  issuedAt,
		Signature: base64.StdEncoding.EncodeToString(sig),
	})
}

func run(c *client, req protocol.Request) {
	resp, err := c.call(req)
	if err != nil {
		fatalf("%s: %v", req.Action, err)
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))
	if resp.Status != protocol.StatusSuccess {
		os.Exit(1)
	}
}

func requireArgs(args []string, n int) {
	if len(args) != n {
		flag.Usage()
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "bankctl: "+format+"\n", args...)
	os.Exit(1)
}

// client wraps one JSON message-per-call connection.
type client struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
}

func dial(addr string) (*client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
	}, nil
}

func (c *client) call(req protocol.Request) (protocol.Response, error) {
	if err := c.encoder.Encode(req); err != nil {
		return protocol.Response{}, err
	}
	var resp protocol.Response
	if err := c.decoder.Decode(&resp); err != nil {
		return protocol.Response{}, err
	}
	return resp, nil
}

func (c *client) close() { _ = c.conn.Close() }
