package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
	"github.com/hamed0406/checkwatch/internal/repo/file"
)

const usage = `usage: cli <command> [flags]

commands:
  add   seed a check into the file store
  ls    list audit logs (-a includes archives)
  logs  print a decompressed archive: logs <archive>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "add":
		err = runAdd(cfg, args)
	case "ls":
		err = runList(cfg, args)
	case "logs":
		err = runLogs(cfg, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runAdd(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	phone := fs.String("phone", "", "owner phone, 10 digits")
	protocol := fs.String("protocol", "https", "http or https")
	method := fs.String("method", "get", "post, get, put or delete")
	codes := fs.String("codes", "200", "comma separated success codes")
	timeout := fs.Int("timeout", 3, "timeout in seconds, 1 to 5")
	_ = fs.Parse(args)

	target := fs.Arg(0)
	if target == "" {
		fmt.Print("Enter a site to monitor (e.g., example.com/health): ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		target = strings.TrimSpace(line)
	}
	if scheme, rest, found := strings.Cut(target, "://"); found {
		*protocol, target = scheme, rest
	}

	var successCodes []any
	for _, c := range strings.Split(*codes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return fmt.Errorf("bad success code %q", c)
		}
		successCodes = append(successCodes, n)
	}

	id, err := domain.NewCheckID()
	if err != nil {
		return err
	}
	rec := repo.Record{
		"id":             id,
		"userPhone":      *phone,
		"protocol":       strings.ToLower(*protocol),
		"url":            target,
		"method":         strings.ToLower(*method),
		"successCodes":   successCodes,
		"timeoutSeconds": *timeout,
	}
	if _, err := domain.Validate(rec); err != nil {
		return err
	}

	store, err := file.New(cfg.DataDir)
	if err != nil {
		return err
	}
	if err := store.Create(context.Background(), repo.CollectionChecks, id, rec); err != nil {
		return err
	}
	fmt.Println("Added check", id)
	return nil
}

func runList(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	all := fs.Bool("a", false, "include compressed archives")
	_ = fs.Parse(args)

	logs, err := auditlog.New(cfg.AuditLogDir)
	if err != nil {
		return err
	}
	names, err := logs.List(*all)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runLogs(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("logs needs exactly one archive name")
	}
	logs, err := auditlog.New(cfg.AuditLogDir)
	if err != nil {
		return err
	}
	body, err := logs.Decompress(args[0])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}
