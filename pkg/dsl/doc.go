/*
Package dsl provides a fluent builder for constructing SOP definitions in Go.

It is an alternative to YAML or JSON files when definitions are generated
dynamically or written inline in tests.

Example usage:

	package main

	import (
		"github.com/aretw0/sopflow/pkg/domain"
		"github.com/aretw0/sopflow/pkg/dsl"
	)

	func main() {
		b := dsl.New("expense").Name("Expense Claim")

		b.Start("start", "Submitted").
			Action("review", "review").Label("Send to review")

		b.Status("review", "In Review").SLA(24).
			OnEnter(dsl.Notify(domain.RecipientAssignee, "{objectName} needs review", domain.ChannelEmail))

		b.Action("approve", "review", "paid").
			Label("Approve").
			Roles("finance").
			Field("Amount", "number").
			Document("Receipt", "pdf")

		b.End("paid", "Paid")

		// The resulting loader can be passed to sopflow.New via sopflow.WithLoader.
		loader, err := b.Build()
		// ...
	}
*/
package dsl
