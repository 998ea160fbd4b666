// Package imaging decodes uploaded images, draws detection boxes with labels,
// and encodes the results as JPEG bytes or data URLs.
package imaging
