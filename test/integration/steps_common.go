package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cucumber/godog"

	"github.com/tpmjs/tpmjs/pkg/apikey"
	"github.com/tpmjs/tpmjs/pkg/model"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	sessionToken string
	userIDs      map[string]string
	rawKeys      map[string]string
	collections  map[string]string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:          tc,
		userIDs:     make(map[string]string),
		rawKeys:     make(map[string]string),
		collections: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a TPMJS server is running$`, s.aTPMJSServerIsRunning)
	sc.Step(`^a user "([^"]*)" exists$`, s.aUserExists)
	sc.Step(`^the user "([^"]*)" has an API key$`, s.theUserHasAnAPIKey)
	sc.Step(`^a package "([^"]*)" at version "([^"]*)" is indexed$`, s.aPackageIsIndexed)
	sc.Step(`^the package "([^"]*)" has a tool "([^"]*)"$`, s.thePackageHasATool)

	// Authentication steps
	sc.Step(`^I exchange the API key of "([^"]*)" for a session token$`, s.iExchangeTheAPIKey)

	// Catalog steps
	sc.Step(`^I request the package listing$`, s.iRequestThePackageListing)
	sc.Step(`^I request the package "([^"]*)"$`, s.iRequestThePackage)
	sc.Step(`^I search tools for "([^"]*)"$`, s.iSearchToolsFor)

	// Collection steps
	sc.Step(`^I create a public collection "([^"]*)" named "([^"]*)"$`, s.iCreateAPublicCollection)
	sc.Step(`^I add the tool "([^"]*)" of package "([^"]*)" to collection "([^"]*)"$`, s.iAddTheToolToCollection)
	sc.Step(`^anyone can fetch the public collection "([^"]*)" of "([^"]*)"$`, s.anyoneCanFetchThePublicCollection)

	// Status steps
	sc.Step(`^I request the health endpoint$`, s.iRequestTheHealthEndpoint)
	sc.Step(`^I request the registry stats$`, s.iRequestTheRegistryStats)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should indicate success$`, s.theResponseShouldIndicateSuccess)
	sc.Step(`^the response error code should be "([^"]*)"$`, s.theResponseErrorCodeShouldBe)
	sc.Step(`^the data should contain "([^"]*)"$`, s.theDataShouldContain)
}

// Background steps

func (s *StepsContext) aTPMJSServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aUserExists(email string) error {
	users := gormstore.NewUsersStore(s.tc.DB)

	existing, err := users.FindUserByEmail(email)
	if err == nil {
		s.userIDs[email] = existing.UserID
		return nil
	}

	user, err := users.CreateUser(email, strings.SplitN(email, "@", 2)[0])
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	s.userIDs[email] = user.UserID
	return nil
}

func (s *StepsContext) theUserHasAnAPIKey(email string) error {
	userID, ok := s.userIDs[email]
	if !ok {
		return fmt.Errorf("unknown user %s", email)
	}

	raw, prefix, digest, err := apikey.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	keys := gormstore.NewAPIKeysStore(s.tc.DB)
	if _, err := keys.CreateAPIKey(userID, "integration", prefix, digest); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	s.rawKeys[email] = raw
	return nil
}

func (s *StepsContext) aPackageIsIndexed(name, version string) error {
	packages := gormstore.NewPackagesStore(s.tc.DB)
	_, err := packages.UpsertPackage(model.Package{
		Name:        name,
		Version:     version,
		Description: "integration fixture",
		Keywords:    model.StringSlice{"tpmjs-tool"},
		Readme:      "# " + name,
	})
	return err
}

func (s *StepsContext) thePackageHasATool(packageName, toolName string) error {
	packages := gormstore.NewPackagesStore(s.tc.DB)
	pkg, err := packages.FindPackage(packageName)
	if err != nil {
		return fmt.Errorf("package %s not indexed: %w", packageName, err)
	}

	toolsStore := gormstore.NewToolsStore(s.tc.DB)
	return toolsStore.ReplaceTools(pkg.PackageID, []model.Tool{{
		PackageID:   pkg.PackageID,
		Name:        toolName,
		Description: toolName + " fixture tool",
		InputSchema: model.JSONMap{"type": "object"},
		Extraction:  model.ExtractionExtracted,
	}})
}

// Authentication steps

func (s *StepsContext) iExchangeTheAPIKey(email string) error {
	raw, ok := s.rawKeys[email]
	if !ok {
		return fmt.Errorf("no API key recorded for %s", email)
	}

	if err := s.request("POST", "/api/auth/token", nil, raw); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusOK {
		var envelope struct {
			Data struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		if err := json.Unmarshal(s.responseBody, &envelope); err != nil {
			return fmt.Errorf("failed to parse token response: %w", err)
		}
		s.sessionToken = envelope.Data.Token
	}
	return nil
}

// Catalog steps

func (s *StepsContext) iRequestThePackageListing() error {
	return s.request("GET", "/api/packages", nil, "")
}

func (s *StepsContext) iRequestThePackage(name string) error {
	return s.request("GET", "/api/packages/"+url.PathEscape(name), nil, "")
}

func (s *StepsContext) iSearchToolsFor(q string) error {
	return s.request("GET", "/api/tools/search?q="+url.QueryEscape(q), nil, "")
}

// Collection steps

func (s *StepsContext) iCreateAPublicCollection(slug, name string) error {
	body := map[string]interface{}{
		"slug":        slug,
		"name":        name,
		"public":      true,
		"mcp_enabled": true,
	}
	if err := s.request("POST", "/api/collections", body, s.sessionToken); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusCreated {
		var envelope struct {
			Data struct {
				CollectionID string `json:"collection_id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(s.responseBody, &envelope); err != nil {
			return fmt.Errorf("failed to parse collection response: %w", err)
		}
		s.collections[slug] = envelope.Data.CollectionID
	}
	return nil
}

func (s *StepsContext) iAddTheToolToCollection(toolName, packageName, slug string) error {
	collectionID, ok := s.collections[slug]
	if !ok {
		return fmt.Errorf("unknown collection %s", slug)
	}

	toolsStore := gormstore.NewToolsStore(s.tc.DB)
	t, err := toolsStore.FindTool(packageName, toolName)
	if err != nil {
		return fmt.Errorf("tool %s/%s not indexed: %w", packageName, toolName, err)
	}

	body := map[string]interface{}{"tool_id": t.Tool.ToolID}
	return s.request("POST", "/api/collections/"+collectionID+"/tools", body, s.sessionToken)
}

func (s *StepsContext) anyoneCanFetchThePublicCollection(slug, email string) error {
	userID, ok := s.userIDs[email]
	if !ok {
		return fmt.Errorf("unknown user %s", email)
	}

	if err := s.request("GET", "/api/collections/"+userID+"/"+slug, nil, ""); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200 for public collection, got %d: %s",
			s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

// Status steps

func (s *StepsContext) iRequestTheHealthEndpoint() error {
	return s.request("GET", "/api/health", nil, "")
}

func (s *StepsContext) iRequestTheRegistryStats() error {
	return s.request("GET", "/api/stats", nil, "")
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response == nil {
		return fmt.Errorf("no response recorded")
	}
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s",
			expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldIndicateSuccess() error {
	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(s.responseBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("expected success=true, got: %s", string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseErrorCodeShouldBe(code string) error {
	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(s.responseBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.Success {
		return fmt.Errorf("expected an error response, got: %s", string(s.responseBody))
	}
	if envelope.Error.Code != code {
		return fmt.Errorf("expected error code %q, got %q", code, envelope.Error.Code)
	}
	return nil
}

func (s *StepsContext) theDataShouldContain(substring string) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(s.responseBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !strings.Contains(string(envelope.Data), substring) {
		return fmt.Errorf("data does not contain %q: %s", substring, string(envelope.Data))
	}
	return nil
}

// request performs an HTTP request against the test server and records the
// response. A non-empty token is sent as a bearer credential.
func (s *StepsContext) request(method, path string, body interface{}, token string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}
