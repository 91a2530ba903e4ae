package pagination_test

import (
	"fmt"

	"github.com/rise-and-shine/repokit/pagination"
)

type user struct {
	ID   int64
	Name string
}

// Example demonstrates the typical request-normalize-page flow.
func Example() {
	req := pagination.Request{PageNumber: 2, PageSize: 10}
	req.Normalize()

	fmt.Printf("fetch with LIMIT %d OFFSET %d\n", req.Limit(), req.Offset())

	users := []user{
		{ID: 11, Name: "John Doe"},
		{ID: 12, Name: "John Smith"},
	}
	page := pagination.NewPage(users, 25, req)

	fmt.Println(page.String())
	fmt.Printf("has next: %t\n", page.HasNext())

	// Output:
	// fetch with LIMIT 10 OFFSET 10
	// page 2 of 3 (total: 25, size: 10)
	// has next: true
}
