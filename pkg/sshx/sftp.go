package sshx

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
)

// Upload copies the files named by the relative-path manifest from
// localRoot to remoteRoot in one bulk operation, creating remote
// directories as needed. A single SFTP session is used per call.
func (client *Client) Upload(localRoot string, paths []string, remoteRoot string) error {
	sess, err := sftp.NewClient(client.Client)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, rel := range paths {
		if err := uploadFile(sess, filepath.Join(localRoot, rel), path.Join(remoteRoot, rel)); err != nil {
			return fmt.Errorf("upload %s: %w", rel, err)
		}
	}

	return nil
}

// Download copies the files named by the relative-path manifest from
// remoteRoot into localRoot, creating local directories as needed.
func (client *Client) Download(remoteRoot string, paths []string, localRoot string) error {
	sess, err := sftp.NewClient(client.Client)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, rel := range paths {
		if err := downloadFile(sess, path.Join(remoteRoot, rel), filepath.Join(localRoot, rel)); err != nil {
			return fmt.Errorf("download %s: %w", rel, err)
		}
	}

	return nil
}

func uploadFile(sess *sftp.Client, local, remote string) error {
	src, err := os.Open(local)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := sess.MkdirAll(path.Dir(remote)); err != nil {
		return err
	}

	dst, err := sess.Create(remote)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}

func downloadFile(sess *sftp.Client, remote, local string) error {
	src, err := sess.Open(remote)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(local)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
