// Package security derives a configuration posture report from engine
// settings. It only reads values handed to it.
package security
