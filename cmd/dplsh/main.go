// dplsh is a small shell over the droplet client library: bucket and object
// CRUD against any configured profile.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/NVIDIA/droplet"
	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
)

var (
	flagDir     = cli.StringFlag{Name: "droplet-dir, d", Usage: "profile directory"}
	flagProfile = cli.StringFlag{Name: "profile, p", Usage: "profile name"}
	flagBucket  = cli.StringFlag{Name: "bucket, b", Usage: "bucket name"}
)

func newCtx(c *cli.Context) (*droplet.Ctx, error) {
	return droplet.New(c.GlobalString("droplet-dir"), c.GlobalString("profile"))
}

func main() {
	app := cli.NewApp()
	app.Name = "dplsh"
	app.Usage = "droplet storage shell"
	app.Flags = []cli.Flag{flagDir, flagProfile}
	app.Commands = []cli.Command{
		{
			Name:      "ls",
			Usage:     "list buckets, or a bucket's objects",
			ArgsUsage: "[prefix]",
			Flags:     []cli.Flag{flagBucket},
			Action:    cmdLs,
		},
		{
			Name:      "put",
			Usage:     "store a local file as an object",
			ArgsUsage: "FILE RESOURCE",
			Flags:     []cli.Flag{flagBucket},
			Action:    cmdPut,
		},
		{
			Name:      "get",
			Usage:     "fetch an object to a local file",
			ArgsUsage: "RESOURCE FILE",
			Flags:     []cli.Flag{flagBucket},
			Action:    cmdGet,
		},
		{
			Name:      "head",
			Usage:     "print an object's metadata",
			ArgsUsage: "RESOURCE",
			Flags:     []cli.Flag{flagBucket},
			Action:    cmdHead,
		},
		{
			Name:      "rm",
			Usage:     "delete an object",
			ArgsUsage: "RESOURCE",
			Flags:     []cli.Flag{flagBucket},
			Action:    cmdRm,
		},
		{
			Name:      "mb",
			Usage:     "make a bucket",
			ArgsUsage: "BUCKET",
			Action:    cmdMb,
		},
		{
			Name:      "rb",
			Usage:     "remove a bucket",
			ArgsUsage: "BUCKET",
			Action:    cmdRb,
		},
		{
			Name:      "genurl",
			Usage:     "generate a pre-signed URL",
			ArgsUsage: "RESOURCE",
			Flags: []cli.Flag{flagBucket,
				cli.DurationFlag{Name: "expires, e", Value: time.Hour, Usage: "validity window"}},
			Action: cmdGenURL,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dplsh: %v\n", err)
		os.Exit(1)
	}
}

func cmdLs(c *cli.Context) error {
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	bucket := c.String("bucket")
	if bucket == "" {
		buckets, err := ctx.ListAllMyBuckets(context.Background(), nil)
		if err != nil {
			return err
		}
		for _, b := range buckets {
			fmt.Println(b.Name)
		}
		return nil
	}
	objects, prefixes, err := ctx.ListBucket(context.Background(), bucket, c.Args().First(), "/")
	if err != nil {
		return err
	}
	for _, p := range prefixes {
		fmt.Println(p)
	}
	for _, o := range objects {
		fmt.Printf("%10d  %s  %s\n", o.Size, o.LastModified.Format(time.RFC3339), o.Path)
	}
	return nil
}

func cmdPut(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: put FILE RESOURCE", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	return ctx.Put(context.Background(), c.String("bucket"), c.Args().Get(1), "",
		nil, cmn.FTypeReg, nil, nil, nil, nil, data)
}

func cmdGet(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: get RESOURCE FILE", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	data, _, _, err := ctx.Get(context.Background(), c.String("bucket"), c.Args().Get(0), "",
		nil, cmn.FTypeReg, nil, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Args().Get(1), data, 0o644)
}

func cmdHead(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: head RESOURCE", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	md, sysmd, err := ctx.Head(context.Background(), c.String("bucket"), c.Args().Get(0), "",
		nil, cmn.FTypeUndef, nil)
	if err != nil {
		return err
	}
	if sysmd.Has(cmn.SysMDMaskSize) {
		fmt.Printf("size: %d\n", sysmd.Size)
	}
	if sysmd.Has(cmn.SysMDMaskMTime) {
		fmt.Printf("mtime: %s\n", sysmd.MTime.Format(time.RFC3339))
	}
	if sysmd.Has(cmn.SysMDMaskETag) {
		fmt.Printf("etag: %s\n", sysmd.ETag)
	}
	_ = md.Iterate(func(e *dict.Entry) error {
		fmt.Printf("%s: %s\n", e.Key, e.Val.String())
		return nil
	})
	return nil
}

func cmdRm(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: rm RESOURCE", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	return ctx.Delete(context.Background(), c.String("bucket"), c.Args().Get(0), "",
		nil, cmn.FTypeUndef, nil)
}

func cmdMb(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: mb BUCKET", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	return ctx.MakeBucket(context.Background(), c.Args().Get(0),
		cmn.LocationConstraintUndef, cmn.CannedACLPrivate)
}

func cmdRb(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: rb BUCKET", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	return ctx.DeleteBucket(context.Background(), c.Args().Get(0))
}

func cmdGenURL(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: genurl RESOURCE", 1)
	}
	ctx, err := newCtx(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	url, err := ctx.GenURL(context.Background(), c.String("bucket"), c.Args().Get(0), "",
		nil, time.Now().Add(c.Duration("expires")))
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}
