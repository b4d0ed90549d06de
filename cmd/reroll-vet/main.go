// Command reroll-vet runs the reroll analyzer as a standalone vet tool:
//
//	go vet -vettool=$(which reroll-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gnolang/reroll/lint"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
