package server

import (
	"os"
	"testing"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.RemoveDBFile()

	os.Exit(code)
}
