/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"godiagram/internal/backend"
	"godiagram/internal/config"
	"godiagram/internal/diagram"
	"godiagram/internal/storage"
)

// EnvLibraryPassword lets scripts log in without a prompt.
const EnvLibraryPassword = "GDG_LIBRARY_PASSWORD"

func (c *cli) libraryClient() *backend.Client {
	lc := c.cfg.Library
	return backend.NewClient(lc.BaseURL, c.token, lc.Timeout(), lc.TLSInsecure)
}

func (c *cli) requireToken() error {
	if c.token == "" {
		return errors.New("not logged in; run: godiagram library login <email>")
	}
	return nil
}

// password reads the password from the environment or the first input line.
func (c *cli) password() (string, error) {
	if p := os.Getenv(EnvLibraryPassword); p != "" {
		return p, nil
	}
	fmt.Fprint(c.out, "Password: ")
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) storeToken(tok string) error {
	c.token = tok
	return config.SetToken(tok)
}

func (c *cli) cmdLibrary(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("library requires an action: %w", errUsage)
	}
	ctx := context.Background()
	action, rest := args[0], args[1:]
	cl := c.libraryClient()

	switch action {
	case "register":
		if len(rest) < 2 {
			return fmt.Errorf("library register requires <email> <display name>: %w", errUsage)
		}
		pw, err := c.password()
		if err != nil {
			return err
		}
		res, err := cl.Register(ctx, rest[0], pw, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		if err := c.storeToken(res.Token); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Registered", res.User.Email)
		return nil
	case "login":
		if len(rest) < 1 {
			return fmt.Errorf("library login requires <email>: %w", errUsage)
		}
		pw, err := c.password()
		if err != nil {
			return err
		}
		res, err := cl.Login(ctx, rest[0], pw)
		if err != nil {
			return err
		}
		if err := c.storeToken(res.Token); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged in as", res.User.DisplayName)
		return nil
	case "logout":
		c.token = ""
		return config.ClearToken()
	}

	if err := c.requireToken(); err != nil {
		return err
	}
	switch action {
	case "list":
		list, err := cl.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(c.out, dimStyle.Render("no diagrams"))
		}
		for _, d := range list {
			fmt.Fprintf(c.out, "%s %-24s v%-3d %3d shapes  %s\n",
				titleStyle.Render(d.ID), d.Name, d.Version, d.Shapes, dimStyle.Render(d.UpdatedAt.Local().Format("2006-01-02 15:04")))
		}
		return nil
	case "publish":
		if len(rest) < 1 {
			return fmt.Errorf("library publish requires <file>: %w", errUsage)
		}
		fs := flag.NewFlagSet("publish", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		id := fs.String("id", "", "diagram id to add a revision to")
		name := fs.String("name", "", "diagram name")
		if err := fs.Parse(rest[1:]); err != nil {
			return fmt.Errorf("%v: %w", err, errUsage)
		}
		h, _, err := c.openDocument(rest[0])
		if err != nil {
			return err
		}
		data, err := storage.EncodeDocument(h.Doc)
		if err != nil {
			return err
		}
		n := *name
		if n == "" && *id == "" {
			n = storage.DocName(h.Path)
		}
		info, err := cl.Publish(ctx, *id, n, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Published %s as %s v%d\n", info.Name, info.ID, info.Version)
		return nil
	case "fetch":
		if len(rest) < 2 {
			return fmt.Errorf("library fetch requires <id> <file>: %w", errUsage)
		}
		fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		version := fs.Int("version", 0, "revision to fetch; latest when 0")
		if err := fs.Parse(rest[2:]); err != nil {
			return fmt.Errorf("%v: %w", err, errUsage)
		}
		p, err := cl.Fetch(ctx, rest[0], *version)
		if err != nil {
			return err
		}
		doc, err := diagram.ParseDocument(p.Document)
		if err != nil {
			return err
		}
		abs, _ := filepath.Abs(rest[1])
		if h, err := storage.Open(abs); err == nil {
			// overwrite through Save so the previous file is backed up
			h.Doc = doc
			err = storage.Save(h)
			if err != nil {
				return err
			}
		} else if _, err := storage.Create(abs, doc); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Fetched %s v%d into %s\n", p.Name, p.Version, abs)
		return nil
	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("library delete requires <id>: %w", errUsage)
		}
		if err := cl.Delete(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Deleted", rest[0])
		return nil
	case "revisions":
		if len(rest) < 1 {
			return fmt.Errorf("library revisions requires <id>: %w", errUsage)
		}
		revs, err := cl.Revisions(ctx, rest[0])
		if err != nil {
			return err
		}
		for _, r := range revs {
			fmt.Fprintf(c.out, "%s %3d shapes %7d B  %s\n",
				keyStyle.Width(6).Render("v"+strconv.Itoa(r.Version)), r.Shapes, r.Size, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}
	return fmt.Errorf("unknown library action %q: %w", action, errUsage)
}
