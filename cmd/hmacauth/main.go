package main

import "github.com/golden-vcr/hmac-auth/cmd/hmacauth/cmd"

func main() {
	cmd.Execute()
}
