package memory_test

import (
	"testing"

	"github.com/warp/teamplanner/ledger"
	"github.com/warp/teamplanner/ledger/ledgertest"
	"github.com/warp/teamplanner/ledger/memory"
)

func TestMemory(t *testing.T) {
	ledgertest.Run(t, func(*testing.T) ledger.Store { return memory.New() })
}
