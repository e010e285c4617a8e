// Package devicetree abstracts the host's USB device-enumeration tree.
//
// A Tree exposes the top-level device keys (one per vendor/product/interface
// combination, e.g. "VID_05A6&PID_0A00") together with the number of
// immediate instance keys recorded beneath each, and can delete one
// top-level key with its whole sub-tree. The Windows backend reads
// HKLM\SYSTEM\CurrentControlSet\Enum\USB and deletes through the native
// reg.exe command; the Linux backend is a read-only view of attached devices
// gathered from sysfs; Memory is an in-process tree for tests and dry runs.
//
// Cleaner builds the stale-entry deletion primitive on top of any Tree.
package devicetree
