package utils

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// Logger interface
type Logger interface {
	// Same as fmt.Println
	Println(...interface{})
}

// Log type for Println
type Log func(msg ...interface{})

// Println interface
func (l Log) Println(msg ...interface{}) {
	l(msg...)
}

// LoggerQuiet does nothing
var LoggerQuiet Logger = Log(func(_ ...interface{}) {})

// E if the last arg is error, panic it
func E(args ...interface{}) []interface{} {
	err, ok := args[len(args)-1].(error)
	if ok {
		panic(err)
	}
	return args
}

// Mkdir makes dir recursively
func Mkdir(path string) error {
	return os.MkdirAll(path, 0o775)
}

// ResetDir removes the dir and everything inside it, then creates it again empty
func ResetDir(path string) error {
	if path == "" || path == "/" || path == "." {
		return fmt.Errorf("refuse to reset dir: %q", path)
	}

	err := os.RemoveAll(path)
	if err != nil {
		return err
	}
	return Mkdir(path)
}

// OutputFile auto creates file if not exists
func OutputFile(p string, data []byte) error {
	dir := filepath.Dir(p)
	_ = Mkdir(dir)

	return os.WriteFile(p, data, 0o664)
}

// FileExists checks if file exists, only for file, not for dir
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

// ReadJSON from reader
func ReadJSON(r io.Reader) (gjson.Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, fmt.Errorf("invalid json: %q", b)
	}
	return gjson.ParseBytes(b), nil
}

// ReadJSONPathAsString from reader
func ReadJSONPathAsString(r io.Reader, path string) (string, error) {
	obj, err := ReadJSON(r)
	if err != nil {
		return "", err
	}

	return obj.Get(path).String(), nil
}

// Serve a port, if host is empty a random port will be used.
// It returns the url, the mux to register handlers, and the function to close the server.
func Serve(host string) (string, *http.ServeMux, func()) {
	if host == "" {
		host = "127.0.0.1:0"
	}

	mux := http.NewServeMux()
	srv := &http.Server{Handler: mux}

	l, err := net.Listen("tcp", host)
	E(err)

	go func() { _ = srv.Serve(l) }()

	url := "http://" + l.Addr().String()

	return url, mux, func() {
		E(srv.Close())
	}
}
