// Command hocg maintains the hololive OCG card database and its artwork.
//
// The sync command pulls every enabled source, reconciles the batch into the
// card file and saves it. The remaining commands inspect the database, hash
// images, package or clean the image trees, and check the environment.
package main
