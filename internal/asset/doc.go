// Package asset copies static files and content-adjacent media from a site's
// source tree into its destination tree.
//
// An Asset is a single copy run. Per-file failures never abort the walk;
// they are collected as CopyError records and read back with Errors (or Err
// for a single classified summary) once the run is over:
//
//	a := asset.New(cfg)
//	a.Copy()
//	a.CopyAssetsFromContent(cfg.ContentFolder)
//	for _, rec := range a.Errors() {
//		fmt.Println(rec)
//	}
//
// Traversal is depth-first in lexical order and filtered by an IgnorePolicy:
// hidden entries (optional for assets, always for content), folders holding
// the ignore marker file, excluded folder names and gitignore-style patterns.
package asset
