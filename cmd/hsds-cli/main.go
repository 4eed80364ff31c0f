package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/scidata/hsds"
	"github.com/scidata/hsds/dspace"
	"github.com/scidata/hsds/dtype"
)

func main() {
	endpoint := os.Getenv("HSDS_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:5101"
	}

	client, err := hsds.NewClient(hsds.Config{
		Endpoints: strings.Split(endpoint, ","),
		Username:  os.Getenv("HSDS_USERNAME"),
		Password:  os.Getenv("HSDS_PASSWORD"),
	})
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("HSDS CLI Tool")
	fmt.Println("=============")
	fmt.Printf("Endpoint: %s\n", endpoint)
	fmt.Println("Commands: open <domain>, ls [path], info <path>, attrs <path>, strings <path>, version, stats, quit")
	fmt.Println()

	var domain *hsds.Domain
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		command := strings.ToLower(parts[0])
		ctx := context.Background()

		if command != "open" && command != "version" && command != "stats" && command != "quit" && command != "exit" && command != "help" && domain == nil {
			fmt.Println("No domain open. Use: open <domain>")
			continue
		}

		switch command {
		case "open":
			if len(parts) != 2 {
				fmt.Println("Usage: open <domain>")
				continue
			}
			d, err := client.OpenDomain(ctx, parts[1])
			if err != nil {
				fmt.Printf("Open failed: %v\n", err)
				continue
			}
			domain = d
			fmt.Printf("Opened %s (root %s)\n", d.Name, d.Root.ID())

		case "ls":
			path := "/"
			if len(parts) > 1 {
				path = parts[1]
			}
			handleList(ctx, domain, path)

		case "info":
			if len(parts) != 2 {
				fmt.Println("Usage: info <path>")
				continue
			}
			handleInfo(ctx, domain, parts[1])

		case "attrs":
			if len(parts) != 2 {
				fmt.Println("Usage: attrs <path>")
				continue
			}
			handleAttrs(ctx, domain, parts[1])

		case "strings":
			if len(parts) != 2 {
				fmt.Println("Usage: strings <path>")
				continue
			}
			handleStrings(ctx, domain, parts[1])

		case "version":
			v, err := client.ServerVersion(ctx)
			if err != nil {
				fmt.Printf("Version check failed: %v\n", err)
				continue
			}
			fmt.Printf("Server version: %d.%d.%d\n", v.Major, v.Minor, v.Patch)

		case "stats":
			s := client.Stats()
			fmt.Printf("Reads:          %d (%d bytes)\n", s.Reads, s.BytesRead)
			fmt.Printf("Writes:         %d (%d bytes)\n", s.Writes, s.BytesWritten)
			fmt.Printf("JSON transfers: %d\n", s.JSONTransfers)
			fmt.Printf("Conversions:    %d\n", s.Conversions)
			fmt.Printf("Errors:         %d\n", s.Errors)

		case "help":
			fmt.Println("Commands:")
			fmt.Println("  open <domain>    - Open a domain")
			fmt.Println("  ls [path]        - List the links of a group")
			fmt.Println("  info <path>      - Show a dataset's type and shape")
			fmt.Println("  attrs <path>     - List attributes of an object")
			fmt.Println("  strings <path>   - Read a string dataset")
			fmt.Println("  version          - Show the server version")
			fmt.Println("  stats            - Show client statistics")
			fmt.Println("  quit             - Exit the CLI")

		case "quit", "exit":
			return

		default:
			fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", command)
		}
	}
}

func handleList(ctx context.Context, domain *hsds.Domain, path string) {
	g, err := domain.OpenGroup(ctx, path)
	if err != nil {
		fmt.Printf("Open group failed: %v\n", err)
		return
	}
	links, err := g.Links(ctx)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}
	for _, l := range links {
		switch l.Class {
		case hsds.LinkHard:
			fmt.Printf("  %-24s %s/%s\n", l.Name, l.Collection, l.TargetID)
		case hsds.LinkSoft:
			fmt.Printf("  %-24s -> %s\n", l.Name, l.H5Path)
		case hsds.LinkExternal:
			fmt.Printf("  %-24s -> %s::%s\n", l.Name, l.H5Domain, l.H5Path)
		}
	}
	fmt.Printf("%d links\n", len(links))
}

func handleInfo(ctx context.Context, domain *hsds.Domain, path string) {
	ds, err := domain.OpenDataset(ctx, path)
	if err != nil {
		fmt.Printf("Open dataset failed: %v\n", err)
		return
	}
	fmt.Printf("ID:    %s\n", ds.ID())
	fmt.Printf("Class: %s (%d bytes/element)\n", ds.Type.Class(), ds.Type.Size())
	switch ds.Space.Class {
	case dspace.ClassScalar:
		fmt.Println("Shape: scalar")
	case dspace.ClassNull:
		fmt.Println("Shape: null")
	default:
		fmt.Printf("Shape: %v (%d elements)\n", ds.Space.Dims, ds.Space.NumElements())
	}
}

func handleAttrs(ctx context.Context, domain *hsds.Domain, path string) {
	g, err := domain.OpenGroup(ctx, path)
	if err != nil {
		fmt.Printf("Open group failed: %v\n", err)
		return
	}
	names, err := g.ListAttributes(ctx)
	if err != nil {
		fmt.Printf("List attributes failed: %v\n", err)
		return
	}
	for _, name := range names {
		a, err := g.GetAttribute(ctx, name)
		if err != nil {
			fmt.Printf("  %-24s <%v>\n", name, err)
			continue
		}
		if a.Strings != nil {
			fmt.Printf("  %-24s %v\n", name, a.Strings)
			continue
		}
		fmt.Printf("  %-24s %s, %d bytes\n", name, a.Type.Class(), len(a.Data))
	}
}

func handleStrings(ctx context.Context, domain *hsds.Domain, path string) {
	ds, err := domain.OpenDataset(ctx, path)
	if err != nil {
		fmt.Printf("Open dataset failed: %v\n", err)
		return
	}
	s, ok := ds.Type.(dtype.String)
	if !ok || !s.IsVariable() {
		fmt.Println("Not a variable-length string dataset")
		return
	}
	values, err := ds.ReadStrings(ctx, nil)
	if err != nil {
		fmt.Printf("Read failed: %v\n", err)
		return
	}
	for i, v := range values {
		fmt.Printf("  [%d] %q\n", i, v)
		if i >= 19 && len(values) > 20 {
			fmt.Printf("  ... %d more\n", len(values)-i-1)
			break
		}
	}
}
