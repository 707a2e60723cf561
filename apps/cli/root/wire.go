package root

import (
	"github.com/zenGate-Global/pagebot/apps/cli/cmd/auth"
	"github.com/zenGate-Global/pagebot/apps/cli/cmd/history"
	"github.com/zenGate-Global/pagebot/apps/cli/cmd/migrate"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(history.Command())
	Root().AddCommand(migrate.Command())
}
