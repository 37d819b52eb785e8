package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
)

// Local stand-in for the Mercado Pago OAuth token endpoint. Point
// MP_TOKEN_URL at it during development. Any code equal to -fail-code is
// rejected with the provider's invalid_grant shape.

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
}

func main() {
	var (
		port     = flag.String("port", "9099", "port to listen on")
		failCode = flag.String("fail-code", "bad-code", "authorization code that triggers an invalid_grant response")
	)
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		code := r.PostFormValue("code")
		w.Header().Set("Content-Type", "application/json")

		if r.PostFormValue("grant_type") != "authorization_code" || code == "" || code == *failCode {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "authorization code is invalid or expired",
			})
			return
		}

		_ = json.NewEncoder(w).Encode(tokenPayload{
			AccessToken:  "APP_USR-mock-access-" + code,
			RefreshToken: "TG-mock-refresh-" + code,
			TokenType:    "Bearer",
			ExpiresIn:    21600,
			Scope:        "offline_access payments read write",
			UserID:       123456789,
		})
	})

	addr := ":" + *port
	log.Printf("mock mercadopago token endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
