package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// cmServer is a candidate CM server endpoint, adapted from the teacher's
// steamclient/discovery.go CMServer type.
type cmServer struct {
	Addr string // "host:port" for TCP, "host" for WebSocket
	Type string // "websockets" or "netfilter"
}

const cmListURL = "https://api.steampowered.com/ISteamDirectory/GetCMListForConnect/v1/?cellid=0"

func discoverServers(ctx context.Context, httpClient *http.Client) ([]cmServer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cmListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return parseCMList(body)
}

type cmListResponse struct {
	Response struct {
		ServerList []struct {
			Endpoint string `json:"endpoint"`
			Type     string `json:"type"`
		} `json:"serverlist"`
	} `json:"response"`
}

func parseCMList(data []byte) ([]cmServer, error) {
	var resp cmListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	servers := make([]cmServer, 0, len(resp.Response.ServerList))
	for _, s := range resp.Response.ServerList {
		servers = append(servers, cmServer{Addr: s.Endpoint, Type: s.Type})
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers in response")
	}
	return servers, nil
}

// DiscoveryProvider implements EndpointProvider by resolving the CM server
// list from Steam's web directory and remembering the last endpoint that
// reached StatusConnected (§6.2 "Endpoint provider ... remembers the last
// working endpoint"). Connect tries the stored endpoint first when present.
type DiscoveryProvider struct {
	HTTPClient *http.Client
	UseTCP     bool // false selects WebSocket transport

	lastGood string
}

func NewDiscoveryProvider(httpClient *http.Client, useTCP bool) *DiscoveryProvider {
	return &DiscoveryProvider{HTTPClient: httpClient, UseTCP: useTCP}
}

func (p *DiscoveryProvider) StoreEndpoint(addr string) { p.lastGood = addr }

// Connect dials a CM server and, for the TCP transport, drives the
// encryption handshake before returning — matching §6.2's "already
// TCP-connected, encryption-envelope-ready stream" contract.
func (p *DiscoveryProvider) Connect(ctx context.Context) (Connection, error) {
	servers, err := discoverServers(ctx, p.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("discover CM servers: %w", err)
	}

	candidates := orderCandidates(servers, p.lastGood)
	wantType := "websockets"
	if p.UseTCP {
		wantType = "netfilter"
	}

	var lastErr error
	for _, s := range candidates {
		if s.Type != wantType {
			continue
		}
		conn, err := p.dial(ctx, s.Addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no %s candidates in CM server list", wantType)
	}
	return nil, lastErr
}

func (p *DiscoveryProvider) dial(ctx context.Context, addr string) (Connection, error) {
	if p.UseTCP {
		conn, err := dialTCP(ctx, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.performEncryptionHandshake(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("encryption handshake with %s: %w", addr, err)
		}
		return conn, nil
	}
	return dialWebSocket(ctx, addr)
}

// orderCandidates puts lastGood first when it's present in the list, since
// it's the endpoint most likely to still be healthy.
func orderCandidates(servers []cmServer, lastGood string) []cmServer {
	if lastGood == "" {
		return servers
	}
	ordered := make([]cmServer, 0, len(servers))
	for _, s := range servers {
		if s.Addr == lastGood {
			ordered = append([]cmServer{s}, ordered...)
		} else {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
