//go:build integration

package profiles

import (
	"net/http"
	"testing"

	"jdpanel/pkg/model"
	"jdpanel/test/integration/testutil"
)

func TestProfile_EmptyBeforeFirstUpdate(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	resp := client.GET(t, "/api/v1/profile")
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var view model.ProfileView
	if err := resp.Data(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.ID != env.TenantID || view.CalAPIKeySet {
		t.Errorf("unexpected profile: %+v", view)
	}
}

func TestProfile_IntegrationKeyIsSealedAtRest(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	const apiKey = "cal_live_integration"
	resp := client.PUT(t, "/api/v1/profile/integrations", map[string]string{"cal_api_key": apiKey})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var view model.ProfileView
	if err := resp.Data(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !view.CalAPIKeySet {
		t.Fatal("expected the key to be reported as set")
	}

	doc := mongo.RawDocument(t, testutil.ProfilesCollection, env.TenantID)
	stored, _ := doc["cal_api_key"].(string)
	if stored == "" || stored == apiKey {
		t.Errorf("key stored unsealed: %q", stored)
	}

	resp = client.PUT(t, "/api/v1/profile/integrations", map[string]string{"cal_api_key": ""})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	if err := resp.Data(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.CalAPIKeySet {
		t.Error("expected the key to be cleared")
	}
}

func TestProfile_UpdateInfo(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	resp := client.PUT(t, "/api/v1/profile/info", model.ProfileInfoInput{
		CompanyName: "JD Próteses Capilares",
		LogoURL:     "http://www.cdn.example.com/logo.png?utm_source=panel",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var view model.ProfileView
	if err := resp.Data(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.LogoURL != "https://cdn.example.com/logo.png" {
		t.Errorf("logo_url = %q", view.LogoURL)
	}
}
