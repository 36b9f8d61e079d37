// Package bungie resolves "Name#1234" Bungie names to stable membership
// ids via the Bungie.net platform API.
package bungie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.bungie.net/Platform"

// ErrNotFound means no Bungie account matches the given name.
var ErrNotFound = errors.New("no bungie account found for that name")

// ErrBadName means the input is not in Name#1234 form.
var ErrBadName = errors.New("bungie name must look like Name#1234")

var codeRe = regexp.MustCompile(`^\d{3,4}$`)

// Profile is the subset of a UserInfoCard the bot stores.
type Profile struct {
	MembershipID    string
	MembershipType  int
	DisplayName     string
	DisplayNameCode int
}

// Client calls the Bungie.net API with an application key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New builds a Client with a sane request timeout.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type searchRequest struct {
	DisplayName     string `json:"displayName"`
	DisplayNameCode int    `json:"displayNameCode"`
}

type userInfoCard struct {
	MembershipID                string `json:"membershipId"`
	MembershipType              int    `json:"membershipType"`
	BungieGlobalDisplayName     string `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode int    `json:"bungieGlobalDisplayNameCode"`
}

type searchResponse struct {
	Response  []userInfoCard `json:"Response"`
	ErrorCode int            `json:"ErrorCode"`
	Message   string         `json:"Message"`
}

// Search resolves a full "Name#1234" string. The first card returned is
// taken as the direct match.
func (c *Client) Search(ctx context.Context, fullName string) (*Profile, error) {
	name, code, err := splitName(fullName)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(searchRequest{DisplayName: name, DisplayNameCode: code})
	if err != nil {
		return nil, err
	}

	// membershipType -1 searches across all platforms.
	url := c.baseURL + "/Destiny2/SearchDestinyPlayerByBungieName/-1/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bungie search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bungie search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("bungie search: decode response: %w", err)
	}
	// ErrorCode 1 is Bungie's success value.
	if parsed.ErrorCode != 1 {
		return nil, fmt.Errorf("bungie search: api error %d: %s", parsed.ErrorCode, parsed.Message)
	}
	if len(parsed.Response) == 0 {
		return nil, ErrNotFound
	}

	card := parsed.Response[0]
	return &Profile{
		MembershipID:    card.MembershipID,
		MembershipType:  card.MembershipType,
		DisplayName:     card.BungieGlobalDisplayName,
		DisplayNameCode: card.BungieGlobalDisplayNameCode,
	}, nil
}

func splitName(fullName string) (string, int, error) {
	parts := strings.Split(strings.TrimSpace(fullName), "#")
	if len(parts) != 2 || parts[0] == "" || !codeRe.MatchString(parts[1]) {
		return "", 0, ErrBadName
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, ErrBadName
	}
	return parts[0], code, nil
}
