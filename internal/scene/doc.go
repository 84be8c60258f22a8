// Package scene is the host data API the preparation pipeline works against.
//
// A Document is the open scene: render settings, materials, objects with
// their modifiers and particle systems, images and linked libraries. FileHost
// keeps one Document in memory, loaded from a JSON scene file (or built in
// memory for an unsaved scene), and offers the host operations the pipeline
// needs: packing external images, making linked datablocks local, and saving
// a copy under another path. The file the scene was opened from is never
// written by FileHost.
package scene
