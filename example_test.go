package multiform_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/tomasbasham/multiform"
)

type Animal int

const (
	Unknown Animal = iota
	Gopher
	Zebra
)

func (a Animal) MarshalForm() (string, error) {
	switch a {
	case Gopher:
		return "gopher", nil
	case Zebra:
		return "zebra", nil
	default:
		return "unknown", nil
	}
}

// printBody prints a body with CRLF line endings shown as plain newlines.
func printBody(b []byte) {
	fmt.Print(strings.ReplaceAll(string(b), "\r\n", "\n"))
}

func ExampleForm() {
	f := multiform.New()
	if err := f.SetBoundary("example"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	f.Append("name", "gopher", nil)
	f.Append("avatar", strings.NewReader("<svg/>"), &multiform.FieldOptions{Filename: "gopher.svg"})

	body, err := f.Bytes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(f.Headers()["Content-Type"])
	printBody(body)
	// Output:
	// multipart/form-data; boundary=example
	// --example
	// Content-Disposition: form-data; name="name"
	//
	// gopher
	// --example
	// Content-Disposition: form-data; name="avatar"; filename="gopher.svg"
	// Content-Type: image/svg+xml
	//
	// <svg/>
	// --example--
}

func Example_customMarshal() {
	type PetOwner struct {
		OwnerName string `form:"owner_name"`
		PetType   Animal `form:"pet_type"`
	}

	owner := PetOwner{
		OwnerName: "Alice",
		PetType:   Gopher,
	}

	f := multiform.New()
	f.SetBoundary("example")
	if err := f.Encode(owner); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	for _, p := range f.Parts() {
		fmt.Println(p.Name(), p.ContentType())
	}
	// Output:
	// owner_name text/plain
	// pet_type text/plain
}

func ExampleMarshal() {
	user := User{
		Name: "Jane Doe",
		Age:  28,
		Address: Address{
			Street: "456 Oak St",
			City:   "Othertown",
			State:  "CA",
			Zip:    "67890",
		},
	}

	f, err := multiform.Marshal(user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	for _, p := range f.Parts() {
		fmt.Println(p.Name())
	}
	// Output:
	// name
	// age
	// address[street]
	// address[city]
	// address[state]
	// address[zip]
}
