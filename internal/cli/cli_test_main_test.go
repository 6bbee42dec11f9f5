package cli_test

import (
	"testing"

	"smartpick.dev/smartpick/testhelpers"
)

func TestMain(m *testing.M) {
	testhelpers.TestMain(m, nil)
}
