package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Chat submits one user message and blocks until the turn completes.
func (c *Client) Chat(text string) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.client.Call("Faceless.Chat", ChatRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Faceless.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves recent persisted turns.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Faceless.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetCharacter swaps the active character.
func (c *Client) SetCharacter(req SetCharacterRequest) (*SetCharacterResponse, error) {
	var resp SetCharacterResponse
	if err := c.client.Call("Faceless.SetCharacter", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetGenParams swaps the sampler configuration.
func (c *Client) SetGenParams(req SetGenParamsRequest) (*SetGenParamsResponse, error) {
	var resp SetGenParamsResponse
	if err := c.client.Call("Faceless.SetGenParams", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Catalogs retrieves the image backend model catalogs.
func (c *Client) Catalogs() (*CatalogsResponse, error) {
	var resp CatalogsResponse
	if err := c.client.Call("Faceless.Catalogs", CatalogsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Faceless.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Faceless.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
