// Package domain contains the core entities of the competitive
// intelligence pipeline: tracked competitors, per-competitor analyses,
// and the weekly reports assembled from them. Entities validate
// themselves and carry no persistence or transport concerns.
package domain
