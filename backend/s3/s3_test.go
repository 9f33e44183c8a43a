// Package s3 implements the S3-compatible REST backend.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/cmn"
	"github.com/NVIDIA/droplet/cmn/dict"
	"github.com/NVIDIA/droplet/req"
)

func newTestRequest(method cmn.Method) *req.Request {
	r := req.New(method)
	r.AccessKey = "AK"
	r.SecretKey = "SK"
	return r
}

func TestPutHeaders(t *testing.T) {
	r := newTestRequest(cmn.MethodPut)
	r.Bucket = "b"
	r.Resource = "/o"
	r.SetData([]byte("hello"))
	r.AddBehavior(cmn.BehaviorMD5)
	r.ContentType = "text/plain"
	r.CannedACL = cmn.CannedACLPublicRead
	r.StorageClass = cmn.StorageClassStandard
	r.AddMetadatum("color", "blue")

	headers, err := buildHeaders(r)
	require.NoError(t, err)

	assert.Equal(t, "5", headers.GetValue("Content-Length"))
	assert.Equal(t, "XUFAKrxLKna5cZ2REBfFkg==", headers.GetValue("Content-MD5"))
	assert.Equal(t, "text/plain", headers.GetValue("Content-Type"))
	assert.Equal(t, "public-read", headers.GetValue("x-amz-acl"))
	assert.Equal(t, "STANDARD", headers.GetValue("x-amz-storage-class"))
	assert.Equal(t, "blue", headers.GetValue("x-amz-meta-color"))
	assert.Equal(t, "keep-alive", headers.GetValue("Connection"))
	assert.NotEmpty(t, headers.GetValue("Date"))
	assert.Contains(t, headers.GetValue("Authorization"), "AWS AK:")
}

func TestCopyHeaders(t *testing.T) {
	r := newTestRequest(cmn.MethodPut)
	r.Bucket = "dst"
	r.Resource = "/d"
	r.AddBehavior(cmn.BehaviorCopy)
	r.SrcBucket = "src"
	r.SrcResource = "/s"
	r.MetadataDirective = cmn.MetadataDirectiveReplace

	var copyCond cmn.Condition
	require.NoError(t, copyCond.Add(cmn.Cond{Type: cmn.CondIfMatch, ETag: "e1"}))
	r.SetCopySourceCondition(&copyCond)

	headers, err := buildHeaders(r)
	require.NoError(t, err)

	assert.Equal(t, "/src/s", headers.GetValue("x-amz-copy-source"))
	assert.Equal(t, "REPLACE", headers.GetValue("x-amz-metadata-directive"))
	assert.Equal(t, "e1", headers.GetValue("x-amz-copy-source-if-match"))
}

func TestGetHeadersRangeAndCondition(t *testing.T) {
	r := newTestRequest(cmn.MethodGet)
	r.Bucket = "b"
	r.Resource = "/o"
	require.NoError(t, r.AddRange(cmn.Range{Start: 0, End: 99}))
	var cond cmn.Condition
	require.NoError(t, cond.Add(cmn.Cond{Type: cmn.CondIfNoneMatch, ETag: "x"}))
	r.SetCondition(&cond)

	headers, err := buildHeaders(r)
	require.NoError(t, err)
	assert.Equal(t, "bytes=0-99", headers.GetValue("Range"))
	assert.Equal(t, "x", headers.GetValue("If-None-Match"))
}

func TestSignatureMatchesCanonicalForm(t *testing.T) {
	r := newTestRequest(cmn.MethodGet)
	r.Bucket = "b"
	r.Resource = "/o"

	headers := dict.New(13)
	headers.Add("Date", "Sat, 01 Jan 2022 00:00:00 GMT", false)
	req.AddAuthorization(r, headers)

	auth := headers.GetValue("Authorization")
	require.True(t, len(auth) > len("AWS AK:"))
	sig, err := base64.StdEncoding.DecodeString(auth[len("AWS AK:"):])
	require.NoError(t, err)

	mac := hmac.New(sha1.New, []byte("SK"))
	mac.Write([]byte("GET\n\n\nSat, 01 Jan 2022 00:00:00 GMT\n/b/o"))
	assert.Equal(t, mac.Sum(nil), sig)
}

func TestParseMetadata(t *testing.T) {
	headers := dict.New(13)
	headers.Add("x-amz-meta-color", "blue", true)
	headers.Add("Content-Length", "1024", true)
	headers.Add("Last-Modified", "Sat, 01 Jan 2022 00:00:00 GMT", true)
	headers.Add("ETag", `"deadbeef"`, true)
	headers.Add("x-amz-version-id", "v7", true)

	md, sysmd := parseMetadata(headers)
	assert.Equal(t, "blue", md.GetValue("color"))
	assert.True(t, sysmd.Has(cmn.SysMDMaskSize))
	assert.EqualValues(t, 1024, sysmd.Size)
	assert.True(t, sysmd.Has(cmn.SysMDMaskMTime))
	assert.Equal(t, "deadbeef", sysmd.ETag)
	assert.Equal(t, "v7", sysmd.Version)
}

func TestParseListBucket(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>dir/obj1</Key>
    <LastModified>2022-01-01T00:00:00.000Z</LastModified>
    <ETag>&quot;aaa&quot;</ETag>
    <Size>42</Size>
  </Contents>
  <Contents>
    <Key>obj2</Key>
    <LastModified>2022-01-02T00:00:00.000Z</LastModified>
    <ETag>&quot;bbb&quot;</ETag>
    <Size>7</Size>
  </Contents>
  <CommonPrefixes><Prefix>photos/</Prefix></CommonPrefixes>
</ListBucketResult>`)

	objects, prefixes, err := parseListBucket(body)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "dir/obj1", objects[0].Path)
	assert.EqualValues(t, 42, objects[0].Size)
	assert.Equal(t, "aaa", objects[0].ETag)
	assert.Equal(t, []string{"photos/"}, prefixes)
}

func TestParseListAllMyBuckets(t *testing.T) {
	body := []byte(`<ListAllMyBucketsResult>
  <Buckets>
    <Bucket><Name>one</Name><CreationDate>2022-01-01T00:00:00.000Z</CreationDate></Bucket>
    <Bucket><Name>two</Name><CreationDate>2022-01-02T00:00:00.000Z</CreationDate></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`)

	buckets, err := parseListAllMyBuckets(body)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "one", buckets[0].Name)
	assert.Equal(t, "two", buckets[1].Name)
}

func TestParseDeleteAll(t *testing.T) {
	body := []byte(`<DeleteResult>
  <Deleted><Key>a</Key></Deleted>
  <Error><Key>b</Key><Code>AccessDenied</Code><Message>no</Message></Error>
</DeleteResult>`)

	results, err := parseDeleteAll(body)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, cmn.Success, results[0].Status)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, cmn.Failure, results[1].Status)
	assert.Contains(t, results[1].Error, "AccessDenied")
}

func TestMakeDeleteAllBody(t *testing.T) {
	body := string(makeDeleteAllBody([]string{"/a", "b"}))
	assert.Equal(t, "<Delete><Object><Key>a</Key></Object><Object><Key>b</Key></Object></Delete>", body)
}
