// Package cargo drives the underlying cargo build for device and simulator
// profiles and extracts the produced executable from cargo's JSON message
// stream.
//
// Ownership boundary:
// - build profile selection and target spec materialization
//
// - toolchain preflight (nightly rustc, wasm target)
//
// - Cargo.toml inspection
package cargo
